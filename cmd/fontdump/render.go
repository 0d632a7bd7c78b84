package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/gogpu/crossfont"
	"golang.org/x/term"
)

// record is the machine-readable dump.
type record struct {
	Font    string `cbor:"font"`
	Size    string `cbor:"size"`
	Face    face   `cbor:"face"`
	Metrics struct {
		AverageAdvance     float64 `cbor:"average_advance"`
		LineHeight         float64 `cbor:"line_height"`
		Descent            float32 `cbor:"descent"`
		UnderlinePosition  float32 `cbor:"underline_position"`
		UnderlineThickness float32 `cbor:"underline_thickness"`
		StrikeoutPosition  float32 `cbor:"strikeout_position"`
		StrikeoutThickness float32 `cbor:"strikeout_thickness"`
	} `cbor:"metrics"`
	Glyph struct {
		Key     string   `cbor:"key"`
		Missing bool     `cbor:"missing"`
		Width   int32    `cbor:"width"`
		Height  int32    `cbor:"height"`
		Top     int32    `cbor:"top"`
		Left    int32    `cbor:"left"`
		Advance [2]int32 `cbor:"advance"`
		Format  string   `cbor:"format"`
		Pixels  []byte   `cbor:"pixels"`
	} `cbor:"glyph"`
}

type face struct {
	Family string `cbor:"family,omitempty"`
	Style  string `cbor:"style,omitempty"`
}

func newRecord(desc crossfont.FontDesc, size crossfont.Size, m crossfont.Metrics,
	key crossfont.GlyphKey, g crossfont.RasterizedGlyph, missing bool,
) *record {
	rec := &record{Font: desc.String(), Size: size.String()}
	rec.Metrics.AverageAdvance = m.AverageAdvance
	rec.Metrics.LineHeight = m.LineHeight
	rec.Metrics.Descent = m.Descent
	rec.Metrics.UnderlinePosition = m.UnderlinePosition
	rec.Metrics.UnderlineThickness = m.UnderlineThickness
	rec.Metrics.StrikeoutPosition = m.StrikeoutPosition
	rec.Metrics.StrikeoutThickness = m.StrikeoutThickness

	rec.Glyph.Key = key.Glyph.String()
	rec.Glyph.Missing = missing
	rec.Glyph.Width = g.Width
	rec.Glyph.Height = g.Height
	rec.Glyph.Top = g.Top
	rec.Glyph.Left = g.Left
	rec.Glyph.Advance = g.Advance
	rec.Glyph.Format = g.Buffer.Format().String()
	rec.Glyph.Pixels = g.Buffer.Bytes()
	return rec
}

func writeCBOR(w io.Writer, rec *record) error {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := em.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeText(w io.Writer, rec *record, g crossfont.RasterizedGlyph, cols int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "font:      %s at %s\n", rec.Font, rec.Size)
	if rec.Face.Family != "" {
		fmt.Fprintf(&b, "face:      %s %s\n", rec.Face.Family, rec.Face.Style)
	}
	m := rec.Metrics
	fmt.Fprintf(&b, "advance:   %.2f\n", m.AverageAdvance)
	fmt.Fprintf(&b, "line:      %.2f\n", m.LineHeight)
	fmt.Fprintf(&b, "descent:   %.2f\n", m.Descent)
	fmt.Fprintf(&b, "underline: %.2f (%.2f thick)\n", m.UnderlinePosition, m.UnderlineThickness)
	fmt.Fprintf(&b, "strikeout: %.2f (%.2f thick)\n", m.StrikeoutPosition, m.StrikeoutThickness)
	fmt.Fprintf(&b, "glyph:     %s\n", g)
	if rec.Glyph.Missing {
		b.WriteString("           (missing, showing the font's fallback glyph)\n")
	}
	b.WriteString(asciiArt(g, cols))

	_, err := io.WriteString(w, b.String())
	return err
}

// shades maps coverage to characters, from empty to full.
const shades = " .:-=+*#%@"

// asciiArt draws g with one character per pixel, skipping columns and rows
// evenly when the glyph is wider than cols.
func asciiArt(g crossfont.RasterizedGlyph, cols int) string {
	if g.IsBlank() {
		return ""
	}
	w, h := int(g.Width), int(g.Height)
	step := 1
	if cols > 0 && w > cols {
		step = (w + cols - 1) / cols
	}
	bpp := g.Buffer.Format().BytesPerPixel()
	pix := g.Buffer.Bytes()

	var b strings.Builder
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			p := pix[(y*w+x)*bpp:]
			cov := int(p[0])
			if bpp == 4 {
				cov = int(p[3])
			}
			b.WriteByte(shades[cov*(len(shades)-1)/255])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
