// Package software is a pure Go crossfont backend.
//
// It reads TrueType and OpenType fonts (including collections) with
// golang.org/x/image/font/sfnt, rasterizes outlines with x/image/vector and
// shapes text with go-text/typesetting. The bundled Go fonts are always
// available, so the backend works on every platform without a native font
// service:
//
//	r, err := software.New(1.0)
//	if err != nil {
//		return err
//	}
//	key, err := r.LoadFont(crossfont.NewFontDesc("Go Mono",
//		crossfont.DescribedStyle(crossfont.SlantNormal, crossfont.WeightBold)),
//		crossfont.NewSize(12))
//
// Importing the package registers it with crossfont as "software":
//
//	import _ "github.com/gogpu/crossfont/backend/software"
//
//	r, err := crossfont.Open(crossfont.BackendSoftware, dpr)
//
// # Font library
//
// New builds a library from the bundled Go fonts, fonts passed with
// WithFontData and the font files found in the platform's font directories
// (or those given with WithFontDirs). Families are matched case-insensitively.
// Families without a bold or italic face get synthetic ones unless
// WithSynthesis(false) is given.
//
// # Glyphs
//
// Outline glyphs are returned as RGB masks with the coverage repeated on each
// channel. Glyphs with an sbix colour bitmap (emoji fonts) are returned as
// premultiplied RGBA. A character missing from the loaded font is looked up in
// the rest of the library before the font's missing-glyph box is returned.
//
// A Rasterizer is not safe for concurrent use.
package software
