package software

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/crossfont"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// obliqueSkew is the horizontal shear of synthetic oblique faces.
const obliqueSkew = 0.2

// synth selects the synthetic styles applied to a face.
type synth struct {
	bold    bool
	oblique bool
}

// emboldenStrength returns the extra stroke width of synthetic bold at px.
func emboldenStrength(px float64) float64 {
	return px / 24
}

// pathSink receives outline segments in glyph bitmap coordinates.
type pathSink interface {
	moveTo(x, y float64)
	lineTo(x, y float64)
	quadTo(bx, by, cx, cy float64)
	cubeTo(bx, by, cx, cy, dx, dy float64)
	closePath()
}

// transform maps outline points (pixels, y down) into bitmap space.
type transform struct {
	dx, dy  float64
	oblique bool
}

func (t transform) apply(p fixed.Point26_6) (x, y float64) {
	x, y = fixedToFloat64(p.X), fixedToFloat64(p.Y)
	if t.oblique {
		x -= obliqueSkew * y
	}
	return x + t.dx, y + t.dy
}

// walkOutline feeds segs to sink. Every contour is closed explicitly.
func walkOutline(segs sfnt.Segments, t transform, sink pathSink) {
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				sink.closePath()
			}
			x, y := t.apply(seg.Args[0])
			sink.moveTo(x, y)
			open = true
		case sfnt.SegmentOpLineTo:
			x, y := t.apply(seg.Args[0])
			sink.lineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			bx, by := t.apply(seg.Args[0])
			cx, cy := t.apply(seg.Args[1])
			sink.quadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := t.apply(seg.Args[0])
			cx, cy := t.apply(seg.Args[1])
			dx, dy := t.apply(seg.Args[2])
			sink.cubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		sink.closePath()
	}
}

// outlineBounds returns the bounding box of the control points of segs.
func outlineBounds(segs sfnt.Segments, t transform) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, seg := range segs {
		n := 1
		switch seg.Op {
		case sfnt.SegmentOpQuadTo:
			n = 2
		case sfnt.SegmentOpCubeTo:
			n = 3
		}
		for _, p := range seg.Args[:n] {
			x, y := t.apply(p)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	return minX, minY, maxX, maxY
}

// fillSink fills an outline with x/image/vector.
type fillSink struct {
	z *vector.Rasterizer
}

func (s fillSink) moveTo(x, y float64) { s.z.MoveTo(float32(x), float32(y)) }
func (s fillSink) lineTo(x, y float64) { s.z.LineTo(float32(x), float32(y)) }
func (s fillSink) quadTo(bx, by, cx, cy float64) {
	s.z.QuadTo(float32(bx), float32(by), float32(cx), float32(cy))
}

func (s fillSink) cubeTo(bx, by, cx, cy, dx, dy float64) {
	s.z.CubeTo(float32(bx), float32(by), float32(cx), float32(cy), float32(dx), float32(dy))
}
func (s fillSink) closePath() { s.z.ClosePath() }

// strokeSink strokes an outline with rasterx to embolden it.
type strokeSink struct {
	d *rasterx.Dasher
}

func (s strokeSink) moveTo(x, y float64) { s.d.Start(rasterx.ToFixedP(x, y)) }
func (s strokeSink) lineTo(x, y float64) { s.d.Line(rasterx.ToFixedP(x, y)) }
func (s strokeSink) quadTo(bx, by, cx, cy float64) {
	s.d.QuadBezier(rasterx.ToFixedP(bx, by), rasterx.ToFixedP(cx, cy))
}

func (s strokeSink) cubeTo(bx, by, cx, cy, dx, dy float64) {
	s.d.CubeBezier(rasterx.ToFixedP(bx, by), rasterx.ToFixedP(cx, cy), rasterx.ToFixedP(dx, dy))
}
func (s strokeSink) closePath() { s.d.Stop(true) }

// rasterizeOutline renders glyph gid of f at px pixels per em into an RGB
// coverage mask. Glyphs without contours, such as spaces, come back blank
// with their advance set.
func rasterizeOutline(f *face, gid sfnt.GlyphIndex, px float64, s synth, h font.Hinting) (crossfont.RasterizedGlyph, error) {
	ppem := floatToFixed(px)
	adv := f.advance(gid, ppem, h)

	var strength float64
	if s.bold {
		strength = emboldenStrength(px)
		adv += strength
	}

	g := crossfont.RasterizedGlyph{
		Advance: [2]int32{int32(math.Round(adv)), 0},
	}

	segs, err := f.outline(gid, ppem)
	if err != nil {
		return g, err
	}
	if len(segs) == 0 {
		return g, nil
	}

	t := transform{oblique: s.oblique}
	minX, minY, maxX, maxY := outlineBounds(segs, t)
	pad := strength / 2
	x0 := int(math.Floor(minX - pad))
	y0 := int(math.Floor(minY - pad))
	x1 := int(math.Ceil(maxX + pad))
	y1 := int(math.Ceil(maxY + pad))
	w, ht := x1-x0, y1-y0
	if w <= 0 || ht <= 0 {
		return g, nil
	}
	t.dx, t.dy = -float64(x0), -float64(y0)

	mask := image.NewAlpha(image.Rect(0, 0, w, ht))

	z := vector.NewRasterizer(w, ht)
	z.DrawOp = draw.Src
	walkOutline(segs, t, fillSink{z: z})
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	if strength > 0 {
		scanner := rasterx.NewScannerGV(w, ht, mask, mask.Bounds())
		d := rasterx.NewDasher(w, ht, scanner)
		d.SetStroke(fixed.Int26_6(strength*64), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
		d.SetColor(color.White)
		walkOutline(segs, t, strokeSink{d: d})
		d.Draw()
	}

	g.Width = int32(w)   //nolint:gosec // bounded by the glyph size
	g.Height = int32(ht) //nolint:gosec // bounded by the glyph size
	g.Left = int32(x0)   //nolint:gosec // bounded by the glyph size
	g.Top = int32(-y0)   //nolint:gosec // bounded by the glyph size
	g.Buffer = crossfont.RGBBuffer(alphaToRGB(mask.Pix))
	return g, nil
}

// alphaToRGB replicates each coverage value on the three channels of an RGB
// mask.
func alphaToRGB(alpha []byte) []byte {
	rgb := make([]byte, len(alpha)*3)
	for i, a := range alpha {
		rgb[i*3] = a
		rgb[i*3+1] = a
		rgb[i*3+2] = a
	}
	return rgb
}
