package crossfont

// Rasterizer is the contract every font engine backend implements.
//
// A Rasterizer is owned by one caller at a time: backends wrap native engines
// with their own thread affinity, so concurrent use must be serialized by the
// caller unless a backend documents otherwise. All calls are synchronous.
//
// Backends are constructed through a Factory, usually via Open or OpenDefault.
type Rasterizer interface {
	// Metrics returns the font-wide metrics of the font at the given size.
	// It fails with ErrUnknownFontKey or ErrMetricsNotFound and is
	// deterministic while the device pixel ratio does not change.
	Metrics(key FontKey, size Size) (Metrics, error)

	// LoadFont finds the font matching desc using the engine's own matching
	// and substitution policy. The key is usable immediately with Metrics and
	// Glyph at any size. It fails with a *FontNotFoundError.
	//
	// Callers must not assume that loading the same descriptor twice returns
	// the same key.
	LoadFont(desc FontDesc, size Size) (FontKey, error)

	// Glyph rasterizes the glyph identified by key. When the glyph has no
	// representation, the error is a *MissingGlyphError carrying the best glyph
	// the backend produced.
	Glyph(key GlyphKey) (RasterizedGlyph, error)

	// UpdateDPR changes the device pixel ratio. It invalidates metrics the
	// backend may have cached but never invalidates font keys.
	UpdateDPR(devicePixelRatio float32)

	// Kerning returns the adjustment between two adjacent glyphs. It returns
	// (0, 0) when no kerning information exists and never fails.
	Kerning(left, right GlyphKey) (x, y float32)
}

// Factory constructs a Rasterizer for the given device pixel ratio (> 0).
// It is the only place a backend may connect to a native font service, and it
// reports failures as a *PlatformError.
type Factory func(devicePixelRatio float32) (Rasterizer, error)

// ShapeInfo is one glyph produced by shaping.
type ShapeInfo struct {
	// Codepoint is the glyph index in the font. Use it with GlyphIndex.
	Codepoint uint32

	// Cluster is the index of the first character of the source text that
	// produced this glyph.
	Cluster uint32
}

// Shaper is an optional capability of a Rasterizer that performs complex
// script shaping: reordering, ligatures and contextual substitution.
//
// Check for it with AsShaper. Without it, callers build one GlyphKey per
// character.
type Shaper interface {
	// Shape converts text into an ordered sequence of glyphs of the font.
	Shape(text string, key FontKey) []ShapeInfo
}

// AsShaper returns r as a Shaper if the backend supports shaping.
func AsShaper(r Rasterizer) (Shaper, bool) {
	s, ok := r.(Shaper)
	return s, ok
}
