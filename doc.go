// Package crossfont is a platform-agnostic abstraction over font loading,
// metrics and glyph rasterization.
//
// A client (a terminal, a text renderer) constructs one Rasterizer, loads
// fonts to obtain FontKeys and rasterizes glyphs identified by GlyphKeys,
// without knowing which engine does the work.
//
// # Backends
//
// Backends register a Factory under a name, usually from an init function:
//
//	import _ "github.com/gogpu/crossfont/backend/software"
//
//	r, err := crossfont.OpenDefault(1.0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Loading fonts and glyphs
//
//	size := crossfont.NewSize(12)
//	desc := crossfont.NewFontDesc("Go Mono",
//	    crossfont.DescribedStyle(crossfont.SlantNormal, crossfont.WeightBold))
//	key, err := r.LoadFont(desc, size)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	glyph, err := r.Glyph(crossfont.CharKey('a', key, size))
//
// Rasterized glyphs are not cached by this package; callers keep their own
// cache keyed by GlyphKey.
//
// # Sizes
//
// Size stores points as an integer with half-point precision so that sizes
// hash and compare exactly. Add and Mul saturate at the representable range.
//
// # Errors
//
// Every fallible operation returns one of a closed set of errors:
// *FontNotFoundError, ErrMetricsNotFound, *MissingGlyphError,
// ErrUnknownFontKey and *PlatformError. KindOf classifies them. Retries and
// fallbacks (another font, a replacement glyph) are left to the caller.
//
// # Shaping
//
// Backends that can shape complex scripts implement Shaper. Use AsShaper to
// check for the capability.
package crossfont
