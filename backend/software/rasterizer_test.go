package software

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/crossfont"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestRasterizer(t *testing.T, opts ...Option) *Rasterizer {
	t.Helper()
	opts = append([]Option{WithoutSystemFonts()}, opts...)
	r, err := New(1, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func loadFont(t *testing.T, r *Rasterizer, family string, style crossfont.Style) crossfont.FontKey {
	t.Helper()
	key, err := r.LoadFont(crossfont.NewFontDesc(family, style), crossfont.NewSize(12))
	if err != nil {
		t.Fatalf("LoadFont(%q, %s) error = %v", family, style, err)
	}
	return key
}

var regular = crossfont.DescribedStyle(crossfont.SlantNormal, crossfont.WeightNormal)

func TestNewInvalidDPR(t *testing.T) {
	for _, dpr := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		if _, err := New(dpr, WithoutSystemFonts()); crossfont.KindOf(err) != crossfont.KindPlatform {
			t.Errorf("New(%v) error = %v, want PlatformError", dpr, err)
		}
	}
}

func TestNewEmptyLibrary(t *testing.T) {
	_, err := New(1, WithoutSystemFonts(), WithoutBuiltinFonts())
	var perr *crossfont.PlatformError
	if !errors.As(err, &perr) {
		t.Fatalf("New() error = %v, want *PlatformError", err)
	}
}

func TestNewSkipsInvalidFontData(t *testing.T) {
	r := newTestRasterizer(t, WithoutBuiltinFonts(), WithFontData([]byte("not a font"), goregular.TTF))
	if got := r.Families(); !slices.Equal(got, []string{"Go"}) {
		t.Errorf("Families() = %v, want [Go]", got)
	}
}

func TestFamilies(t *testing.T) {
	r := newTestRasterizer(t)
	families := r.Families()
	for _, want := range []string{"Go", "Go Mono"} {
		if !slices.Contains(families, want) {
			t.Errorf("Families() = %v, missing %q", families, want)
		}
	}
}

func TestLoadFontMatching(t *testing.T) {
	r := newTestRasterizer(t)

	tests := []struct {
		name      string
		family    string
		style     crossfont.Style
		wantStyle string
	}{
		{"described regular", "Go", regular, "Regular"},
		{"case insensitive family", "gO", regular, "Regular"},
		{"specific bold", "Go", crossfont.SpecificStyle("Bold"), "Bold"},
		{"specific case insensitive", "Go", crossfont.SpecificStyle("bold italic"), "Bold Italic"},
		{"specific missing falls back to regular", "Go", crossfont.SpecificStyle("Condensed"), "Regular"},
		{"described bold", "Go", crossfont.DescribedStyle(crossfont.SlantNormal, crossfont.WeightBold), "Bold"},
		{"described italic", "Go", crossfont.DescribedStyle(crossfont.SlantItalic, crossfont.WeightNormal), "Italic"},
		{"described oblique uses italic", "Go", crossfont.DescribedStyle(crossfont.SlantOblique, crossfont.WeightNormal), "Italic"},
		{"described bold italic", "Go Mono", crossfont.DescribedStyle(crossfont.SlantItalic, crossfont.WeightBold), "Bold Italic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := loadFont(t, r, tt.family, tt.style)
			_, style, ok := r.FaceName(key)
			if !ok {
				t.Fatal("FaceName() did not resolve a fresh key")
			}
			if style != tt.wantStyle {
				t.Errorf("style = %q, want %q", style, tt.wantStyle)
			}
		})
	}
}

func TestLoadFontNotFound(t *testing.T) {
	r := newTestRasterizer(t)
	desc := crossfont.NewFontDesc("No Such Family", regular)

	_, err := r.LoadFont(desc, crossfont.NewSize(12))
	var nf *crossfont.FontNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("LoadFont() error = %v, want *FontNotFoundError", err)
	}
	if nf.Desc != desc {
		t.Errorf("error desc = %v, want %v", nf.Desc, desc)
	}
}

func TestLoadFontDedup(t *testing.T) {
	r := newTestRasterizer(t)
	a := loadFont(t, r, "Go", regular)
	b, err := r.LoadFont(crossfont.NewFontDesc("Go", regular), crossfont.NewSize(30))
	if err != nil {
		t.Fatalf("LoadFont() error = %v", err)
	}
	if a != b {
		t.Errorf("same descriptor gave keys %v and %v", a, b)
	}
	c := loadFont(t, r, "Go", crossfont.SpecificStyle("Bold"))
	if c == a {
		t.Error("different descriptors shared a key")
	}
}

func TestSyntheticStyles(t *testing.T) {
	size := crossfont.NewSize(48)
	width := func(r *Rasterizer, style crossfont.Style) int32 {
		t.Helper()
		key := loadFont(t, r, "Go", style)
		g, err := r.Glyph(crossfont.CharKey('l', key, size))
		if err != nil {
			t.Fatalf("Glyph() error = %v", err)
		}
		return g.Width
	}
	bold := crossfont.DescribedStyle(crossfont.SlantNormal, crossfont.WeightBold)
	italic := crossfont.DescribedStyle(crossfont.SlantItalic, crossfont.WeightNormal)

	r := newTestRasterizer(t, WithoutBuiltinFonts(), WithFontData(goregular.TTF))
	base := width(r, regular)
	if got := width(r, bold); got <= base {
		t.Errorf("synthetic bold width = %d, want > %d", got, base)
	}
	if got := width(r, italic); got <= base {
		t.Errorf("synthetic oblique width = %d, want > %d", got, base)
	}

	plain := newTestRasterizer(t, WithoutBuiltinFonts(), WithFontData(goregular.TTF), WithSynthesis(false))
	if got := width(plain, bold); got != base {
		t.Errorf("bold width without synthesis = %d, want %d", got, base)
	}
}

func TestMetrics(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go Mono", regular)
	size := crossfont.NewSize(12)

	m, err := r.Metrics(key, size)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if m.AverageAdvance <= 0 || m.LineHeight <= 0 {
		t.Errorf("Metrics() = %+v, want positive advance and line height", m)
	}
	if m.Descent >= 0 {
		t.Errorf("Descent = %v, want negative", m.Descent)
	}
	if m.UnderlineThickness <= 0 || m.StrikeoutThickness <= 0 {
		t.Errorf("Metrics() = %+v, want positive line thicknesses", m)
	}
	if m.StrikeoutPosition <= 0 {
		t.Errorf("StrikeoutPosition = %v, want above the baseline", m.StrikeoutPosition)
	}

	again, err := r.Metrics(key, size)
	if err != nil {
		t.Fatalf("Metrics() second call error = %v", err)
	}
	if diff := cmp.Diff(m, again); diff != "" {
		t.Errorf("Metrics() not deterministic (-first +second):\n%s", diff)
	}

	zero, err := r.Glyph(crossfont.CharKey('0', key, size))
	if err != nil {
		t.Fatalf("Glyph('0') error = %v", err)
	}
	if math.Abs(m.AverageAdvance-float64(zero.Advance[0])) > 1 {
		t.Errorf("AverageAdvance = %v, advance of '0' = %d", m.AverageAdvance, zero.Advance[0])
	}

	big, err := r.Metrics(key, crossfont.NewSize(24))
	if err != nil {
		t.Fatalf("Metrics(24pt) error = %v", err)
	}
	if math.Abs(big.LineHeight-2*m.LineHeight) > 2 {
		t.Errorf("LineHeight at 24pt = %v, at 12pt = %v", big.LineHeight, m.LineHeight)
	}
}

func TestMetricsUnknownKey(t *testing.T) {
	r := newTestRasterizer(t)
	if _, err := r.Metrics(crossfont.NextFontKey(), crossfont.NewSize(12)); !errors.Is(err, crossfont.ErrUnknownFontKey) {
		t.Errorf("Metrics() error = %v, want ErrUnknownFontKey", err)
	}
}

func TestMetricsNonPositiveSize(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	for _, size := range []crossfont.Size{crossfont.NewSize(0), crossfont.NewSize(-12), crossfont.MinSize} {
		if _, err := r.Metrics(key, size); !errors.Is(err, crossfont.ErrMetricsNotFound) {
			t.Errorf("Metrics(%s) error = %v, want ErrMetricsNotFound", size, err)
		}
	}
}

func TestGlyphSizeLimits(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)

	tests := []struct {
		name string
		size crossfont.Size
	}{
		{"zero", crossfont.NewSize(0)},
		{"negative", crossfont.NewSize(-12)},
		{"min", crossfont.MinSize},
		{"max", crossfont.MaxSize},
		{"above pixel limit", crossfont.NewSize(1537)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := r.Glyph(crossfont.CharKey('M', key, tt.size))
			var perr *crossfont.PlatformError
			if !errors.As(err, &perr) {
				t.Fatalf("Glyph(%s) error = %v, want *PlatformError", tt.size, err)
			}
			if !g.IsBlank() || g.Advance != [2]int32{} {
				t.Errorf("Glyph(%s) = %v, want a blank glyph", tt.size, g)
			}
		})
	}

	// The limit applies to pixels, so it moves with the DPR.
	gk := crossfont.CharKey('.', key, crossfont.NewSize(1000))
	if _, err := r.Glyph(gk); err != nil {
		t.Fatalf("Glyph(1000pt) at dpr 1 error = %v", err)
	}
	r.UpdateDPR(2)
	if _, err := r.Glyph(gk); crossfont.KindOf(err) != crossfont.KindPlatform {
		t.Errorf("Glyph(1000pt) at dpr 2 error = %v, want PlatformError", err)
	}
}

func TestGlyphOutline(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)

	g, err := r.Glyph(crossfont.CharKey('a', key, crossfont.NewSize(16)))
	if err != nil {
		t.Fatalf("Glyph() error = %v", err)
	}
	if g.Character != 'a' {
		t.Errorf("Character = %q", g.Character)
	}
	if g.Width <= 0 || g.Height <= 0 || g.Top <= 0 || g.Advance[0] <= 0 {
		t.Fatalf("Glyph() = %v, want visible geometry", g)
	}
	if g.Buffer.Format() != crossfont.FormatRGB {
		t.Fatalf("format = %v, want RGB", g.Buffer.Format())
	}
	pix := g.Buffer.Bytes()
	if len(pix) != int(g.Width*g.Height)*3 {
		t.Fatalf("buffer length = %d, want %d", len(pix), g.Width*g.Height*3)
	}
	var covered bool
	for i := 0; i < len(pix); i += 3 {
		if pix[i] != pix[i+1] || pix[i] != pix[i+2] {
			t.Fatalf("pixel %d channels differ: %v", i/3, pix[i:i+3])
		}
		covered = covered || pix[i] > 0
	}
	if !covered {
		t.Error("glyph has no coverage")
	}
}

func TestGlyphSpace(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)

	g, err := r.Glyph(crossfont.CharKey(' ', key, crossfont.NewSize(16)))
	if err != nil {
		t.Fatalf("Glyph(' ') error = %v", err)
	}
	if !g.IsBlank() || g.Advance[0] <= 0 {
		t.Errorf("Glyph(' ') = %v, want blank with an advance", g)
	}
}

func TestGlyphPlaceholder(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)

	g, err := r.Glyph(crossfont.GlyphKey{Glyph: crossfont.Placeholder, Font: key, Size: crossfont.NewSize(12)})
	if err != nil {
		t.Fatalf("Glyph(placeholder) error = %v", err)
	}
	if diff := cmp.Diff(crossfont.RasterizedGlyph{}, g, cmp.AllowUnexported(crossfont.BitmapBuffer{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Glyph(placeholder) mismatch (-want +got):\n%s", diff)
	}
}

func TestGlyphErrors(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	size := crossfont.NewSize(12)

	if _, err := r.Glyph(crossfont.CharKey('a', crossfont.NextFontKey(), size)); !errors.Is(err, crossfont.ErrUnknownFontKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownFontKey", err)
	}

	g, err := r.Glyph(crossfont.IndexKey(1<<20, key, size))
	var missing *crossfont.MissingGlyphError
	if !errors.As(err, &missing) {
		t.Fatalf("out of range index error = %v, want *MissingGlyphError", err)
	}
	if !g.IsBlank() {
		t.Errorf("out of range index glyph = %v, want blank", g)
	}

	const han = '中'
	g, err = r.Glyph(crossfont.CharKey(han, key, size))
	if !errors.As(err, &missing) {
		t.Fatalf("uncovered char error = %v, want *MissingGlyphError", err)
	}
	if g.Character != han || missing.Glyph.Character != han {
		t.Errorf("missing glyph character = %q / %q, want %q", g.Character, missing.Glyph.Character, han)
	}
}

func TestGlyphByIndexMatchesChar(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	size := crossfont.NewSize(14)

	infos := r.Shape("g", key)
	if len(infos) != 1 {
		t.Fatalf("Shape(g) = %v", infos)
	}
	byChar, err := r.Glyph(crossfont.CharKey('g', key, size))
	if err != nil {
		t.Fatal(err)
	}
	byIndex, err := r.Glyph(crossfont.IndexKey(infos[0].Codepoint, key, size))
	if err != nil {
		t.Fatal(err)
	}
	byIndex.Character = byChar.Character
	if diff := cmp.Diff(byChar, byIndex, cmp.AllowUnexported(crossfont.BitmapBuffer{})); diff != "" {
		t.Errorf("glyph by index differs from glyph by char (-char +index):\n%s", diff)
	}
}

func TestGlyphReturnsCopy(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	gk := crossfont.CharKey('x', key, crossfont.NewSize(12))

	first, err := r.Glyph(gk)
	if err != nil {
		t.Fatal(err)
	}
	want := first.Clone()
	clear(first.Buffer.Bytes())

	second, err := r.Glyph(gk)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, second, cmp.AllowUnexported(crossfont.BitmapBuffer{})); diff != "" {
		t.Errorf("cached glyph was modified through a returned buffer:\n%s", diff)
	}
}

func TestUpdateDPR(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	size := crossfont.NewSize(12)

	before, err := r.Metrics(key, size)
	if err != nil {
		t.Fatal(err)
	}
	r.UpdateDPR(2)
	if r.DevicePixelRatio() != 2 {
		t.Fatalf("DevicePixelRatio() = %v, want 2", r.DevicePixelRatio())
	}
	after, err := r.Metrics(key, size)
	if err != nil {
		t.Fatalf("Metrics() after UpdateDPR error = %v", err)
	}
	if math.Abs(after.LineHeight-2*before.LineHeight) > 2 {
		t.Errorf("LineHeight at dpr 2 = %v, at dpr 1 = %v", after.LineHeight, before.LineHeight)
	}

	for _, bad := range []float32{0, -3, float32(math.NaN())} {
		r.UpdateDPR(bad)
		if r.DevicePixelRatio() != 2 {
			t.Errorf("UpdateDPR(%v) changed the ratio to %v", bad, r.DevicePixelRatio())
		}
	}
	if _, err := r.Glyph(crossfont.CharKey('a', key, size)); err != nil {
		t.Errorf("Glyph() after UpdateDPR error = %v", err)
	}
}

func TestKerning(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)
	other := loadFont(t, r, "Go Mono", regular)
	size := crossfont.NewSize(12)

	tests := []struct {
		name        string
		left, right crossfont.GlyphKey
	}{
		{"different fonts", crossfont.CharKey('A', key, size), crossfont.CharKey('V', other, size)},
		{"different sizes", crossfont.CharKey('A', key, size), crossfont.CharKey('V', key, crossfont.NewSize(13))},
		{"placeholder", crossfont.GlyphKey{Font: key, Size: size}, crossfont.CharKey('V', key, size)},
		{"unknown key", crossfont.CharKey('A', crossfont.NextFontKey(), size), crossfont.CharKey('V', crossfont.NextFontKey(), size)},
		{"index out of range", crossfont.IndexKey(1<<20, key, size), crossfont.CharKey('V', key, size)},
		{"zero size", crossfont.CharKey('A', key, crossfont.Size{}), crossfont.CharKey('V', key, crossfont.Size{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if x, y := r.Kerning(tt.left, tt.right); x != 0 || y != 0 {
				t.Errorf("Kerning() = (%v, %v), want (0, 0)", x, y)
			}
		})
	}

	// The Go fonts have no kerning.
	if x, y := r.Kerning(crossfont.CharKey('A', key, size), crossfont.CharKey('V', key, size)); x != 0 || y != 0 {
		t.Errorf("Kerning(A, V) = (%v, %v), want (0, 0)", x, y)
	}
}

func TestKerningFromKernTable(t *testing.T) {
	f, err := openFace(goregular.TTF, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := f.glyphIndex('A')
	v, _ := f.glyphIndex('V')
	// Go Regular has 2048 units per em.
	data := withTables(t, goregular.TTF, map[string][]byte{
		"kern": kernTable(kernPair{a, v, -256}, kernPair{v, a, 128}),
	})

	r := newTestRasterizer(t, WithoutBuiltinFonts(), WithFontData(data))
	key := loadFont(t, r, "Go", regular)
	size := crossfont.NewSize(12) // 16 pixels per em

	tests := []struct {
		name        string
		left, right crossfont.GlyphKey
		want        float32
	}{
		{"A V", crossfont.CharKey('A', key, size), crossfont.CharKey('V', key, size), -2},
		{"V A", crossfont.CharKey('V', key, size), crossfont.CharKey('A', key, size), 1},
		{"A A", crossfont.CharKey('A', key, size), crossfont.CharKey('A', key, size), 0},
		{"by index", crossfont.IndexKey(uint32(a), key, size), crossfont.CharKey('V', key, size), -2},
		{"24pt", crossfont.CharKey('A', key, crossfont.NewSize(24)), crossfont.CharKey('V', key, crossfont.NewSize(24)), -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if x, y := r.Kerning(tt.left, tt.right); x != tt.want || y != 0 {
				t.Errorf("Kerning() = (%v, %v), want (%v, 0)", x, y, tt.want)
			}
		})
	}

	r.UpdateDPR(2)
	if x, _ := r.Kerning(crossfont.CharKey('A', key, size), crossfont.CharKey('V', key, size)); x != -4 {
		t.Errorf("Kerning(A, V) at dpr 2 = %v, want -4", x)
	}
}

func TestShape(t *testing.T) {
	r := newTestRasterizer(t)
	key := loadFont(t, r, "Go", regular)

	infos := r.Shape("abc", key)
	if len(infos) != 3 {
		t.Fatalf("Shape(abc) = %v, want 3 glyphs", infos)
	}
	face := r.fonts[key].face
	for i, ch := range "abc" {
		gid, _ := face.glyphIndex(ch)
		want := crossfont.ShapeInfo{Codepoint: uint32(gid), Cluster: uint32(i)}
		if infos[i] != want {
			t.Errorf("Shape(abc)[%d] = %+v, want %+v", i, infos[i], want)
		}
	}

	if got := r.Shape("", key); len(got) != 0 {
		t.Errorf("Shape(\"\") = %v", got)
	}
	if got := r.Shape("abc", crossfont.NextFontKey()); got != nil {
		t.Errorf("Shape with unknown key = %v, want nil", got)
	}

	if _, ok := crossfont.AsShaper(r); !ok {
		t.Error("AsShaper() did not detect the software shaper")
	}
}

func TestRegistered(t *testing.T) {
	if !crossfont.IsRegistered(crossfont.BackendSoftware) {
		t.Fatal("software backend is not registered")
	}
}
