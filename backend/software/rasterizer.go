package software

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/crossfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func init() {
	crossfont.Register(crossfont.BackendSoftware, func(dpr float32) (crossfont.Rasterizer, error) {
		r, err := New(dpr)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

var (
	_ crossfont.Rasterizer = (*Rasterizer)(nil)
	_ crossfont.Shaper     = (*Rasterizer)(nil)
)

// pointsToPixels converts typographic points to pixels at a device pixel
// ratio of 1.
const pointsToPixels = 96.0 / 72.0

// shapingPPEM is the size text is shaped at. Glyph selection does not depend
// on it.
const shapingPPEM = 16.0

// maxPixelsPerEm is the largest pixel size glyphs are rasterized at.
const maxPixelsPerEm = 2048

// Rasterizer is the software crossfont backend.
type Rasterizer struct {
	dpr float32
	cfg config
	lib *library

	fonts map[crossfont.FontKey]*loadedFont
	keys  map[crossfont.FontDesc]crossfont.FontKey

	metrics *cache[metricsKey, crossfont.Metrics]
	glyphs  *cache[crossfont.GlyphKey, crossfont.RasterizedGlyph]
	shaper  *shaper
}

// loadedFont is a face selected by LoadFont together with the synthetic
// styles it needs. want is the appearance the descriptor asked for, used to
// style fallback faces; it is empty when synthesis is disabled.
type loadedFont struct {
	face  *face
	synth synth
	want  synth
}

type metricsKey struct {
	font crossfont.FontKey
	size crossfont.Size
}

// New creates a software Rasterizer for the given device pixel ratio.
func New(dpr float32, opts ...Option) (*Rasterizer, error) {
	if err := crossfont.ValidateDPR(dpr); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	lib := buildLibrary(&cfg)
	if lib.isEmpty() {
		return nil, crossfont.NewPlatformError("software: no fonts available")
	}
	logger().Debug("software: font library ready", "faces", len(lib.entries), "families", len(lib.families))

	return &Rasterizer{
		dpr:     dpr,
		cfg:     cfg,
		lib:     lib,
		fonts:   make(map[crossfont.FontKey]*loadedFont),
		keys:    make(map[crossfont.FontDesc]crossfont.FontKey),
		metrics: newCache[metricsKey, crossfont.Metrics](0),
		glyphs:  newCache[crossfont.GlyphKey, crossfont.RasterizedGlyph](cfg.cacheLimit),
		shaper:  newShaper(),
	}, nil
}

// DevicePixelRatio returns the current device pixel ratio.
func (r *Rasterizer) DevicePixelRatio() float32 {
	return r.dpr
}

// Families returns the family names in the library, in registration order.
func (r *Rasterizer) Families() []string {
	seen := make(map[string]bool, len(r.lib.families))
	var out []string
	for _, e := range r.lib.entries {
		if !seen[e.family] {
			seen[e.family] = true
			out = append(out, e.family)
		}
	}
	return out
}

// FaceName returns the family and style of the face a key resolved to.
// Synthetic styles are not part of the name.
func (r *Rasterizer) FaceName(key crossfont.FontKey) (family, style string, ok bool) {
	lf, ok := r.fonts[key]
	if !ok {
		return "", "", false
	}
	return lf.face.family, lf.face.style, true
}

// pixelSize converts size to pixels per em at the current DPR.
func (r *Rasterizer) pixelSize(size crossfont.Size) float64 {
	return float64(size.Points()) * float64(r.dpr) * pointsToPixels
}

// LoadFont implements crossfont.Rasterizer. Loading the same descriptor
// again returns the key issued the first time.
func (r *Rasterizer) LoadFont(desc crossfont.FontDesc, _ crossfont.Size) (crossfont.FontKey, error) {
	if key, ok := r.keys[desc]; ok {
		return key, nil
	}

	e, s, err := r.lib.match(desc, r.cfg.synthesis)
	if err != nil {
		return crossfont.FontKey{}, err
	}
	f, err := r.lib.open(e)
	if err != nil {
		return crossfont.FontKey{}, crossfont.WrapPlatformError(err, fmt.Sprintf("cannot open %s %s", e.family, e.style))
	}

	var want synth
	if r.cfg.synthesis {
		want = wantedStyle(desc.Style)
	}

	key := crossfont.NextFontKey()
	r.fonts[key] = &loadedFont{face: f, synth: s, want: want}
	r.keys[desc] = key
	logger().Debug("software: font loaded", "desc", desc.String(), "key", key.Token(),
		"face", f.family+" "+f.style, "synthetic_bold", s.bold, "synthetic_oblique", s.oblique)
	return key, nil
}

// Metrics implements crossfont.Rasterizer.
func (r *Rasterizer) Metrics(key crossfont.FontKey, size crossfont.Size) (crossfont.Metrics, error) {
	lf, ok := r.fonts[key]
	if !ok {
		return crossfont.Metrics{}, crossfont.ErrUnknownFontKey
	}
	if size.Raw() <= 0 {
		return crossfont.Metrics{}, fmt.Errorf("%w: size %s", crossfont.ErrMetricsNotFound, size)
	}
	mk := metricsKey{font: key, size: size}
	if m, ok := r.metrics.get(mk); ok {
		return m, nil
	}

	m, err := r.computeMetrics(lf, r.pixelSize(size))
	if err != nil {
		return crossfont.Metrics{}, err
	}
	r.metrics.set(mk, m)
	return m, nil
}

func (r *Rasterizer) computeMetrics(lf *loadedFont, px float64) (crossfont.Metrics, error) {
	f := lf.face
	ppem := floatToFixed(px)
	hinting := r.cfg.hinting.fontHinting()

	fm, err := f.metrics(ppem, hinting)
	if err != nil {
		return crossfont.Metrics{}, fmt.Errorf("%w: %s %s: %v", crossfont.ErrMetricsNotFound, f.family, f.style, err)
	}
	lineHeight := fixedToFloat64(fm.Height)
	descent := fixedToFloat64(fm.Descent)
	if lineHeight <= 0 {
		return crossfont.Metrics{}, fmt.Errorf("%w: %s %s has no line height", crossfont.ErrMetricsNotFound, f.family, f.style)
	}

	avg, ok := averageAdvance(f, ppem, hinting)
	if !ok {
		return crossfont.Metrics{}, fmt.Errorf("%w: %s %s has no printable ASCII glyphs", crossfont.ErrMetricsNotFound, f.family, f.style)
	}
	if lf.synth.bold {
		avg += emboldenStrength(px)
	}

	upos, uthick, ok := f.underline(px)
	if !ok {
		uthick = max(px/14, 1)
		upos = -descent / 2
	}

	spos := fixedToFloat64(fm.XHeight) / 2
	if spos <= 0 {
		spos = fixedToFloat64(fm.Ascent) / 3
	}

	return crossfont.Metrics{
		AverageAdvance:     avg,
		LineHeight:         lineHeight,
		Descent:            float32(-descent),
		UnderlinePosition:  float32(upos),
		UnderlineThickness: float32(uthick),
		StrikeoutPosition:  float32(spos),
		StrikeoutThickness: float32(uthick),
	}, nil
}

// averageAdvance returns the advance of '0', or the mean advance of the
// printable ASCII characters the font covers.
func averageAdvance(f *face, ppem fixed.Int26_6, hinting font.Hinting) (float64, bool) {
	if gid, ok := f.glyphIndex('0'); ok {
		if adv := f.advance(gid, ppem, hinting); adv > 0 {
			return adv, true
		}
	}

	var sum float64
	var n int
	for c := rune(0x20); c < 0x7f; c++ {
		gid, ok := f.glyphIndex(c)
		if !ok {
			continue
		}
		sum += f.advance(gid, ppem, hinting)
		n++
	}
	if n == 0 || sum <= 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Glyph implements crossfont.Rasterizer. The returned glyph does not share
// memory with the cache. Sizes of zero or below, and sizes above
// maxPixelsPerEm at the current DPR, return a *crossfont.PlatformError.
func (r *Rasterizer) Glyph(key crossfont.GlyphKey) (crossfont.RasterizedGlyph, error) {
	if key.Glyph.IsPlaceholder() {
		return crossfont.RasterizedGlyph{}, nil
	}
	lf, ok := r.fonts[key.Font]
	if !ok {
		return crossfont.RasterizedGlyph{}, crossfont.ErrUnknownFontKey
	}
	if err := r.checkSize(key.Size); err != nil {
		return crossfont.RasterizedGlyph{}, err
	}
	if g, ok := r.glyphs.get(key); ok {
		return g.Clone(), nil
	}

	g, err := r.renderGlyph(lf, key)
	if err != nil {
		return g, err
	}
	r.glyphs.set(key, g)
	return g.Clone(), nil
}

// checkSize rejects sizes glyphs cannot be rasterized at.
func (r *Rasterizer) checkSize(size crossfont.Size) error {
	if size.Raw() <= 0 {
		return crossfont.NewPlatformError(fmt.Sprintf("software: cannot rasterize at %s", size))
	}
	if px := r.pixelSize(size); px > maxPixelsPerEm {
		return crossfont.NewPlatformError(fmt.Sprintf("software: %s is %.0f pixels per em at dpr %g, above the limit of %d",
			size, px, r.dpr, maxPixelsPerEm))
	}
	return nil
}

func (r *Rasterizer) renderGlyph(lf *loadedFont, key crossfont.GlyphKey) (crossfont.RasterizedGlyph, error) {
	px := r.pixelSize(key.Size)

	if ch, ok := key.Glyph.Char(); ok {
		if gid, ok := lf.face.glyphIndex(ch); ok {
			g, err := r.render(lf.face, gid, px, lf.synth)
			g.Character = ch
			return g, err
		}
		if fb, ok := r.lib.fallbackFor(ch); ok {
			gid, _ := fb.face.glyphIndex(ch)
			logger().Debug("software: using fallback face", "char", string(ch), "face", fb.family+" "+fb.style)
			g, err := r.render(fb.face, gid, px, lf.want.missingFrom(fb))
			g.Character = ch
			return g, err
		}

		// .notdef
		g, err := r.render(lf.face, 0, px, lf.synth)
		if err != nil {
			g = crossfont.RasterizedGlyph{}
		}
		g.Character = ch
		return g, &crossfont.MissingGlyphError{Glyph: g}
	}

	idx, _ := key.Glyph.GlyphIndex()
	if !lf.face.hasGlyph(idx) {
		return crossfont.RasterizedGlyph{}, &crossfont.MissingGlyphError{}
	}
	return r.render(lf.face, sfnt.GlyphIndex(idx), px, lf.synth)
}

// render rasterizes gid, preferring a colour bitmap when the face has one.
func (r *Rasterizer) render(f *face, gid sfnt.GlyphIndex, px float64, s synth) (crossfont.RasterizedGlyph, error) {
	hinting := r.cfg.hinting.fontHinting()
	if g, ok := rasterizeColor(f, gid, px, hinting); ok {
		return g, nil
	}
	g, err := rasterizeOutline(f, gid, px, s, hinting)
	if err != nil {
		return g, crossfont.WrapPlatformError(err, fmt.Sprintf("cannot rasterize glyph %d of %s %s", gid, f.family, f.style))
	}
	return g, nil
}

// UpdateDPR implements crossfont.Rasterizer. Invalid ratios are ignored.
func (r *Rasterizer) UpdateDPR(dpr float32) {
	if err := crossfont.ValidateDPR(dpr); err != nil {
		logger().Warn("software: ignoring device pixel ratio", "dpr", dpr, "err", err)
		return
	}
	if dpr == r.dpr {
		return
	}
	r.dpr = dpr
	r.metrics.clear()
	r.glyphs.clear()
}

// Kerning implements crossfont.Rasterizer. Both keys must use the same font
// and a positive size.
func (r *Rasterizer) Kerning(left, right crossfont.GlyphKey) (x, y float32) {
	if left.Font != right.Font || left.Size != right.Size || left.Size.Raw() <= 0 {
		return 0, 0
	}
	lf, ok := r.fonts[left.Font]
	if !ok {
		return 0, 0
	}
	a, ok := r.resolve(lf.face, left.Glyph)
	if !ok {
		return 0, 0
	}
	b, ok := r.resolve(lf.face, right.Glyph)
	if !ok {
		return 0, 0
	}
	k := lf.face.kern(a, b, floatToFixed(r.pixelSize(left.Size)), r.cfg.hinting.fontHinting())
	return float32(k), 0
}

// resolve maps a glyph identity to a glyph index of f.
func (r *Rasterizer) resolve(f *face, k crossfont.KeyType) (sfnt.GlyphIndex, bool) {
	if ch, ok := k.Char(); ok {
		return f.glyphIndex(ch)
	}
	if idx, ok := k.GlyphIndex(); ok && f.hasGlyph(idx) {
		return sfnt.GlyphIndex(idx), true
	}
	return 0, false
}

// Shape implements crossfont.Shaper. An unknown key shapes to nil. When the
// font cannot be shaped every character maps to its cmap glyph (0 when the
// font lacks it).
func (r *Rasterizer) Shape(text string, key crossfont.FontKey) []crossfont.ShapeInfo {
	lf, ok := r.fonts[key]
	if !ok {
		return nil
	}
	infos, err := r.shaper.shape(text, lf.face, shapingPPEM)
	if err == nil {
		return infos
	}
	logger().Debug("software: shaping failed, mapping characters", "face", lf.face.family, "err", err)

	infos = make([]crossfont.ShapeInfo, 0, len(text))
	var i uint32
	for _, ch := range text {
		gid, _ := lf.face.glyphIndex(ch)
		infos = append(infos, crossfont.ShapeInfo{Codepoint: uint32(gid), Cluster: i})
		i++
	}
	return infos
}

// logger returns the package logger.
func logger() *slog.Logger {
	return crossfont.Logger()
}
