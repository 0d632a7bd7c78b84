package software

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogpu/crossfont/internal/cbdt"
	"github.com/gogpu/crossfont/internal/sbix"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// face wraps one parsed sfnt font of the library.
//
// A face belongs to one Rasterizer and reuses a single sfnt.Buffer, so it is
// not safe for concurrent use.
type face struct {
	font      *sfnt.Font
	data      []byte // whole font file, possibly a collection
	index     int
	family    string
	style     string
	numGlyphs int
	sbix      *sbix.Table // nil without an sbix table
	cbdt      *cbdt.Table // nil without CBLC and CBDT tables
	buf       sfnt.Buffer
}

// openFace parses font number index of data.
func openFace(data []byte, index int) (*face, error) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("software: failed to parse font: %w", err)
	}
	if index < 0 || index >= coll.NumFonts() {
		return nil, fmt.Errorf("software: font index %d out of range (%d fonts)", index, coll.NumFonts())
	}
	f, err := coll.Font(index)
	if err != nil {
		return nil, fmt.Errorf("software: failed to parse font %d: %w", index, err)
	}

	fc := &face{
		font:      f,
		data:      data,
		index:     index,
		numGlyphs: f.NumGlyphs(),
	}
	fc.family, fc.style = fontNames(f, &fc.buf)

	// Colour bitmaps are only read from single-font files.
	if !isCollection(data) {
		fc.sbix, fc.cbdt = colorTables(data, fc.numGlyphs)
	}
	return fc, nil
}

// colorTables parses the sbix and CBLC/CBDT tables of a single font, when
// present.
func colorTables(data []byte, numGlyphs int) (*sbix.Table, *cbdt.Table) {
	var (
		st *sbix.Table
		ct *cbdt.Table
	)
	if table, err := sbix.FindTable(data, "sbix"); err == nil {
		if st, err = sbix.Parse(table, numGlyphs); err != nil {
			logger().Debug("software: ignoring sbix table", "err", err)
		}
	}
	cblcData, errL := sbix.FindTable(data, "CBLC")
	cbdtData, errD := sbix.FindTable(data, "CBDT")
	if errL == nil && errD == nil {
		var err error
		if ct, err = cbdt.Parse(cblcData, cbdtData); err != nil {
			logger().Debug("software: ignoring CBLC/CBDT tables", "err", err)
		}
	}
	return st, ct
}

// cmapCovers reports whether font number index of data maps r, without
// keeping the parsed font.
func cmapCovers(data []byte, index int, r rune) bool {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return false
	}
	f, err := coll.Font(index)
	if err != nil {
		return false
	}
	var buf sfnt.Buffer
	gid, err := f.GlyphIndex(&buf, r)
	return err == nil && gid != 0
}

// isCollection reports whether data starts with a TTC/OTC header.
func isCollection(data []byte) bool {
	return bytes.HasPrefix(data, []byte("ttcf"))
}

// fontNames returns the family and style names of f, preferring the
// typographic names over the legacy four-style ones.
func fontNames(f *sfnt.Font, buf *sfnt.Buffer) (family, style string) {
	family = nameOr(f, buf, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
	style = nameOr(f, buf, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
	if style == "" {
		style = "Regular"
	}
	return family, style
}

func nameOr(f *sfnt.Font, buf *sfnt.Buffer, ids ...sfnt.NameID) string {
	for _, id := range ids {
		if s, err := f.Name(buf, id); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// glyphIndex maps r through the font's cmap. It reports false when the font
// has no glyph for r.
func (f *face) glyphIndex(r rune) (sfnt.GlyphIndex, bool) {
	gid, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil || gid == 0 {
		return 0, false
	}
	return gid, true
}

// hasGlyph reports whether gid is a valid glyph index.
func (f *face) hasGlyph(gid uint32) bool {
	return gid < uint32(f.numGlyphs) //nolint:gosec // numGlyphs is at most 65535
}

// advance returns the horizontal advance of gid in pixels.
func (f *face) advance(gid sfnt.GlyphIndex, ppem fixed.Int26_6, h font.Hinting) float64 {
	adv, err := f.font.GlyphAdvance(&f.buf, gid, ppem, h)
	if err != nil {
		return 0
	}
	return fixedToFloat64(adv)
}

// metrics returns the font-wide metrics at ppem.
func (f *face) metrics(ppem fixed.Int26_6, h font.Hinting) (font.Metrics, error) {
	return f.font.Metrics(&f.buf, ppem, h)
}

// underline returns the underline position and thickness in pixels from the
// post table. It reports false when the table is missing or empty.
func (f *face) underline(px float64) (position, thickness float64, ok bool) {
	post := f.font.PostTable()
	if post == nil || post.UnderlineThickness <= 0 {
		return 0, 0, false
	}
	upem := float64(f.font.UnitsPerEm())
	if upem <= 0 {
		return 0, 0, false
	}
	scale := px / upem
	return float64(post.UnderlinePosition) * scale, float64(post.UnderlineThickness) * scale, true
}

// kern returns the kerning between two glyphs in pixels, or 0 when the font
// has no kerning for the pair.
func (f *face) kern(a, b sfnt.GlyphIndex, ppem fixed.Int26_6, h font.Hinting) float64 {
	k, err := f.font.Kern(&f.buf, a, b, ppem, h)
	if err != nil {
		if !errors.Is(err, sfnt.ErrNotFound) {
			logger().Debug("software: kern lookup failed", "family", f.family, "err", err)
		}
		return 0
	}
	return fixedToFloat64(k)
}

// outline returns the glyph outline scaled to ppem, with y pointing down.
// The returned segments are valid until the next call on f.
func (f *face) outline(gid sfnt.GlyphIndex, ppem fixed.Int26_6) (sfnt.Segments, error) {
	return f.font.LoadGlyph(&f.buf, gid, ppem, nil)
}

// fixedToFloat64 converts fixed.Int26_6 to float64.
func fixedToFloat64(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}

// floatToFixed converts a pixel size to fixed.Int26_6, rounding to the
// nearest 1/64.
func floatToFixed(v float64) fixed.Int26_6 {
	if v < 0 {
		return fixed.Int26_6(v*64 - 0.5)
	}
	return fixed.Int26_6(v*64 + 0.5)
}
