// Package crossfonttest provides a conformance suite for crossfont backends.
//
// A backend package runs it from its own tests:
//
//	func TestConformance(t *testing.T) {
//		crossfonttest.Suite{
//			Factory: factory,
//			Font:    crossfont.NewFontDesc("Go", crossfont.SpecificStyle("Regular")),
//		}.Run(t)
//	}
package crossfonttest

import (
	"errors"
	"testing"

	"github.com/gogpu/crossfont"
)

// Suite describes the backend under test.
type Suite struct {
	// Factory constructs the backend.
	Factory crossfont.Factory

	// Font must be available on the test machine.
	Font crossfont.FontDesc

	// Char is a character Font covers. It defaults to 'a'.
	Char rune

	// UnknownFamily, when set, names a family the backend must reject with
	// a *crossfont.FontNotFoundError. Leave it empty for backends that always
	// substitute a font.
	UnknownFamily string
}

// Run runs the suite as subtests of t.
func (s Suite) Run(t *testing.T) {
	t.Helper()
	if s.Factory == nil {
		t.Fatal("crossfonttest: Suite.Factory is nil")
	}
	if s.Char == 0 {
		s.Char = 'a'
	}

	t.Run("InvalidDPR", s.testInvalidDPR)
	t.Run("LoadFont", s.testLoadFont)
	t.Run("FontNotFound", s.testFontNotFound)
	t.Run("Metrics", s.testMetrics)
	t.Run("UnknownFontKey", s.testUnknownFontKey)
	t.Run("Placeholder", s.testPlaceholder)
	t.Run("Glyph", s.testGlyph)
	t.Run("Kerning", s.testKerning)
	t.Run("UpdateDPR", s.testUpdateDPR)
	t.Run("Shaper", s.testShaper)
}

var size = crossfont.NewSize(12)

func (s Suite) open(t *testing.T) crossfont.Rasterizer {
	t.Helper()
	r, err := s.Factory(1)
	if err != nil {
		t.Fatalf("Factory(1) error = %v", err)
	}
	return r
}

func (s Suite) load(t *testing.T, r crossfont.Rasterizer) crossfont.FontKey {
	t.Helper()
	key, err := r.LoadFont(s.Font, size)
	if err != nil {
		t.Fatalf("LoadFont(%s) error = %v", s.Font, err)
	}
	return key
}

func (s Suite) testInvalidDPR(t *testing.T) {
	if _, err := s.Factory(0); err == nil {
		t.Error("Factory(0) succeeded, want an error")
	}
}

func (s Suite) testLoadFont(t *testing.T) {
	r := s.open(t)
	first := s.load(t, r)
	second := s.load(t, r)

	// Either key may be used; the backend may or may not reuse keys.
	for _, key := range []crossfont.FontKey{first, second} {
		if _, err := r.Metrics(key, size); err != nil {
			t.Errorf("Metrics(%v) error = %v", key, err)
		}
	}
}

func (s Suite) testFontNotFound(t *testing.T) {
	if s.UnknownFamily == "" {
		t.Skip("backend substitutes missing families")
	}
	r := s.open(t)
	desc := crossfont.NewFontDesc(s.UnknownFamily, s.Font.Style)

	_, err := r.LoadFont(desc, size)
	var nf *crossfont.FontNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("LoadFont(%s) error = %v, want *FontNotFoundError", desc, err)
	}
	if nf.Desc != desc {
		t.Errorf("FontNotFoundError.Desc = %v, want %v", nf.Desc, desc)
	}
}

func (s Suite) testMetrics(t *testing.T) {
	r := s.open(t)
	key := s.load(t, r)

	m, err := r.Metrics(key, size)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if m.AverageAdvance <= 0 {
		t.Errorf("AverageAdvance = %v, want > 0", m.AverageAdvance)
	}
	if m.LineHeight <= 0 {
		t.Errorf("LineHeight = %v, want > 0", m.LineHeight)
	}
	if m.Descent > 0 {
		t.Errorf("Descent = %v, want <= 0", m.Descent)
	}

	again, err := r.Metrics(key, size)
	if err != nil {
		t.Fatalf("Metrics() second call error = %v", err)
	}
	if again != m {
		t.Errorf("Metrics() not deterministic: %+v then %+v", m, again)
	}
}

func (s Suite) testUnknownFontKey(t *testing.T) {
	r := s.open(t)
	foreign := crossfont.NextFontKey()

	if _, err := r.Metrics(foreign, size); !errors.Is(err, crossfont.ErrUnknownFontKey) {
		t.Errorf("Metrics(foreign key) error = %v, want ErrUnknownFontKey", err)
	}
	if _, err := r.Glyph(crossfont.CharKey(s.Char, foreign, size)); !errors.Is(err, crossfont.ErrUnknownFontKey) {
		t.Errorf("Glyph(foreign key) error = %v, want ErrUnknownFontKey", err)
	}
}

func (s Suite) testPlaceholder(t *testing.T) {
	r := s.open(t)
	key := s.load(t, r)

	g, err := r.Glyph(crossfont.GlyphKey{Glyph: crossfont.Placeholder, Font: key, Size: size})
	if err != nil {
		t.Fatalf("Glyph(placeholder) error = %v", err)
	}
	if !g.IsBlank() || g.Advance != [2]int32{} {
		t.Errorf("Glyph(placeholder) = %v, want blank", g)
	}
}

func (s Suite) testGlyph(t *testing.T) {
	r := s.open(t)
	key := s.load(t, r)

	g, err := r.Glyph(crossfont.CharKey(s.Char, key, size))
	if err != nil {
		t.Fatalf("Glyph(%q) error = %v", s.Char, err)
	}
	CheckGlyph(t, g)
	if g.IsBlank() {
		t.Errorf("Glyph(%q) is blank", s.Char)
	}
	if g.Advance[0] <= 0 {
		t.Errorf("Glyph(%q) advance = %v, want > 0", s.Char, g.Advance)
	}
}

// CheckGlyph reports an error when the buffer of g does not match its
// geometry.
func CheckGlyph(t *testing.T, g crossfont.RasterizedGlyph) {
	t.Helper()
	if g.Width < 0 || g.Height < 0 {
		t.Errorf("glyph size %dx%d is negative", g.Width, g.Height)
		return
	}
	want := int(g.Width) * int(g.Height) * g.Buffer.Format().BytesPerPixel()
	if g.Buffer.Len() != want {
		t.Errorf("glyph buffer has %d bytes, want %d for %dx%d %s",
			g.Buffer.Len(), want, g.Width, g.Height, g.Buffer.Format())
	}
}

func (s Suite) testKerning(t *testing.T) {
	r := s.open(t)
	key := s.load(t, r)

	placeholder := crossfont.GlyphKey{Glyph: crossfont.Placeholder, Font: key, Size: size}
	if x, y := r.Kerning(placeholder, placeholder); x != 0 || y != 0 {
		t.Errorf("Kerning(placeholder, placeholder) = (%v, %v), want (0, 0)", x, y)
	}
	foreign := crossfont.CharKey(s.Char, crossfont.NextFontKey(), size)
	if x, y := r.Kerning(foreign, foreign); x != 0 || y != 0 {
		t.Errorf("Kerning(foreign, foreign) = (%v, %v), want (0, 0)", x, y)
	}
}

func (s Suite) testUpdateDPR(t *testing.T) {
	r := s.open(t)
	key := s.load(t, r)

	r.UpdateDPR(2)
	if _, err := r.Metrics(key, size); err != nil {
		t.Errorf("Metrics() after UpdateDPR(2) error = %v", err)
	}
	if _, err := r.Glyph(crossfont.CharKey(s.Char, key, size)); err != nil {
		t.Errorf("Glyph() after UpdateDPR(2) error = %v", err)
	}

	r.UpdateDPR(0)
	if _, err := r.Metrics(key, size); err != nil {
		t.Errorf("Metrics() after UpdateDPR(0) error = %v", err)
	}
}

func (s Suite) testShaper(t *testing.T) {
	r := s.open(t)
	shaper, ok := crossfont.AsShaper(r)
	if !ok {
		t.Skip("backend does not shape")
	}
	key := s.load(t, r)

	text := string([]rune{s.Char, s.Char})
	infos := shaper.Shape(text, key)
	if len(infos) == 0 {
		t.Fatalf("Shape(%q) returned no glyphs", text)
	}
	for _, info := range infos {
		g, err := r.Glyph(crossfont.IndexKey(info.Codepoint, key, size))
		if err != nil {
			t.Errorf("Glyph(index %d) error = %v", info.Codepoint, err)
			continue
		}
		CheckGlyph(t, g)
	}
}
