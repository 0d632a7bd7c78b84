package software

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/crossfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
)

// colorBitmap is a decoded colour glyph in strike pixels. left and top place
// the top-left corner relative to the glyph origin, with y up.
type colorBitmap struct {
	img       image.Image
	ppem      uint16
	left, top int
}

// colorGlyph looks gid up in the face's sbix strikes, then in its CBDT
// strikes, picking the strike closest to px.
func colorGlyph(f *face, gid sfnt.GlyphIndex, px float64) (colorBitmap, bool) {
	want := uint16(min(math.Ceil(px), math.MaxUint16))

	if f.sbix != nil {
		bm, err := f.sbix.Glyph(int(gid), f.sbix.BestStrike(want))
		if err == nil && bm.PPEM != 0 {
			img, err := bm.Decode()
			if err == nil {
				return colorBitmap{
					img:  img,
					ppem: bm.PPEM,
					left: int(bm.OriginX),
					top:  int(bm.OriginY) + img.Bounds().Dy(),
				}, true
			}
			logger().Debug("software: cannot decode sbix glyph", "family", f.family, "glyph", gid, "err", err)
		}
	}

	if f.cbdt != nil {
		bm, err := f.cbdt.Glyph(uint16(gid), f.cbdt.BestStrike(want))
		if err == nil && bm.PPEM != 0 {
			img, err := bm.Decode()
			if err == nil {
				return colorBitmap{img: img, ppem: bm.PPEM, left: bm.BearingX, top: bm.BearingY}, true
			}
			logger().Debug("software: cannot decode CBDT glyph", "family", f.family, "glyph", gid, "err", err)
		}
	}
	return colorBitmap{}, false
}

// rasterizeColor renders glyph gid from the face's colour bitmap strike
// closest to px, scaled to px. It reports false when the glyph has no colour
// bitmap.
func rasterizeColor(f *face, gid sfnt.GlyphIndex, px float64, h font.Hinting) (crossfont.RasterizedGlyph, bool) {
	cb, ok := colorGlyph(f, gid, px)
	if !ok {
		return crossfont.RasterizedGlyph{}, false
	}

	img := cb.img
	scale := px / float64(cb.ppem)
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	ht := max(1, int(math.Round(float64(b.Dy())*scale)))
	if w != b.Dx() || ht != b.Dy() {
		img = imaging.Resize(img, w, ht, imaging.Lanczos)
	}

	adv := f.advance(gid, floatToFixed(px), h)
	return crossfont.RasterizedGlyph{
		Width:   int32(w),                                    //nolint:gosec // bounded by maxPixelsPerEm
		Height:  int32(ht),                                   //nolint:gosec // bounded by maxPixelsPerEm
		Left:    int32(math.Round(float64(cb.left) * scale)), //nolint:gosec // strike origins are small
		Top:     int32(math.Round(float64(cb.top) * scale)),  //nolint:gosec // strike origins are small
		Advance: [2]int32{int32(math.Round(adv)), 0},
		Buffer:  crossfont.RGBABuffer(premultiply(img)),
	}, true
}

// premultiply converts img to tightly packed premultiplied RGBA bytes.
func premultiply(img image.Image) []byte {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}
