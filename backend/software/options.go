package software

import "golang.org/x/image/font"

// Hinting specifies font hinting mode for metrics and advances.
type Hinting int

const (
	// HintingNone disables hinting.
	HintingNone Hinting = iota
	// HintingVertical applies vertical hinting only.
	HintingVertical
	// HintingFull applies full hinting.
	HintingFull
)

// String returns the string representation of the hinting.
func (h Hinting) String() string {
	switch h {
	case HintingNone:
		return "None"
	case HintingVertical:
		return "Vertical"
	case HintingFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// fontHinting converts h to the x/image hinting mode.
func (h Hinting) fontHinting() font.Hinting {
	switch h {
	case HintingVertical:
		return font.HintingVertical
	case HintingFull:
		return font.HintingFull
	default:
		return font.HintingNone
	}
}

// Option configures a Rasterizer.
type Option func(*config)

// config holds configuration for a Rasterizer.
type config struct {
	fontDirs     []string
	fontData     [][]byte
	systemFonts  bool
	builtinFonts bool
	hinting      Hinting
	cacheLimit   int
	synthesis    bool
	fallback     []string
}

// defaultConfig returns the default configuration.
func defaultConfig() config {
	return config{
		systemFonts:  true,
		builtinFonts: true,
		hinting:      HintingFull,
		cacheLimit:   1024,
		synthesis:    true,
		fallback:     defaultFallbackFamilies,
	}
}

// defaultFallbackFamilies are searched first for characters the requested
// face lacks.
var defaultFallbackFamilies = []string{
	"Noto Color Emoji",
	"Apple Color Emoji",
	"Segoe UI Emoji",
	"Segoe UI Symbol",
	"Noto Sans",
	"Noto Sans CJK SC",
	"Noto Sans Symbols",
	"Noto Sans Symbols 2",
	"DejaVu Sans",
	"Microsoft YaHei",
	"PingFang SC",
}

// WithFontDirs scans the given directories instead of the platform's
// default font directories.
func WithFontDirs(dirs ...string) Option {
	return func(c *config) {
		c.fontDirs = append(c.fontDirs, dirs...)
	}
}

// WithFontData adds in-memory fonts (TTF, OTF or collections) to the library.
// The data must not be modified afterwards.
func WithFontData(data ...[]byte) Option {
	return func(c *config) {
		c.fontData = append(c.fontData, data...)
	}
}

// WithoutSystemFonts disables scanning of font directories, including those
// given with WithFontDirs.
func WithoutSystemFonts() Option {
	return func(c *config) {
		c.systemFonts = false
	}
}

// WithoutBuiltinFonts leaves the bundled Go font families out of the library.
func WithoutBuiltinFonts() Option {
	return func(c *config) {
		c.builtinFonts = false
	}
}

// WithHinting sets the hinting mode. The default is HintingFull.
func WithHinting(h Hinting) Option {
	return func(c *config) {
		c.hinting = h
	}
}

// WithCacheLimit sets the maximum number of cached glyphs.
// A value of 0 disables the limit.
func WithCacheLimit(n int) Option {
	return func(c *config) {
		c.cacheLimit = n
	}
}

// WithSynthesis enables or disables synthetic bold and oblique faces for
// families that lack them. It is enabled by default.
func WithSynthesis(enabled bool) Option {
	return func(c *config) {
		c.synthesis = enabled
	}
}

// WithFallbackFamilies sets the families searched first, in order, for
// characters the requested face does not cover. The rest of the library is
// searched after them.
func WithFallbackFamilies(families ...string) Option {
	return func(c *config) {
		c.fallback = families
	}
}
