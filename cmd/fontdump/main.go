// Command fontdump loads a font through a crossfont backend and dumps its
// metrics and one rasterized glyph.
//
//	fontdump -family "Go Mono" -bold -size 16 -char g
//	fontdump -family Go -index 36 -format cbor > glyph.cbor
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/gogpu/crossfont"
	"github.com/gogpu/crossfont/backend/software"
)

type options struct {
	family  string
	style   string
	bold    bool
	italic  bool
	size    float64
	dpr     float64
	char    string
	index   int
	backend string
	format  string
	dir     string
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.family, "family", "Go Mono", "font family")
	flag.StringVar(&opts.style, "style", "", "exact style name, overrides -bold and -italic")
	flag.BoolVar(&opts.bold, "bold", false, "request a bold face")
	flag.BoolVar(&opts.italic, "italic", false, "request an italic face")
	flag.Float64Var(&opts.size, "size", 12, "font size in points")
	flag.Float64Var(&opts.dpr, "dpr", 1, "device pixel ratio")
	flag.StringVar(&opts.char, "char", "g", "character to rasterize")
	flag.IntVar(&opts.index, "index", -1, "glyph index to rasterize instead of -char")
	flag.StringVar(&opts.backend, "backend", "", "backend name (default: best available)")
	flag.StringVar(&opts.format, "format", "text", "output format: text or cbor")
	flag.StringVar(&opts.dir, "dir", "", "font directory for the software backend")
	flag.BoolVar(&opts.verbose, "v", false, "log backend activity to stderr")
	flag.Parse()

	if opts.verbose {
		crossfont.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("fontdump: %v", err)
	}
}

func run(opts options, out io.Writer) error {
	if opts.format != "text" && opts.format != "cbor" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	r, err := openBackend(opts)
	if err != nil {
		return err
	}

	desc := crossfont.NewFontDesc(opts.family, styleFor(opts))
	size := crossfont.NewSize(float32(opts.size))
	key, err := r.LoadFont(desc, size)
	if err != nil {
		return err
	}
	metrics, err := r.Metrics(key, size)
	if err != nil {
		return err
	}

	glyphKey, err := glyphKeyFor(opts, key, size)
	if err != nil {
		return err
	}
	glyph, err := r.Glyph(glyphKey)
	var missing *crossfont.MissingGlyphError
	switch {
	case errors.As(err, &missing):
		glyph = missing.Glyph
	case err != nil:
		return err
	}

	rec := newRecord(desc, size, metrics, glyphKey, glyph, missing != nil)
	if named, ok := r.(interface {
		FaceName(crossfont.FontKey) (string, string, bool)
	}); ok {
		rec.Face.Family, rec.Face.Style, _ = named.FaceName(key)
	}

	if opts.format == "cbor" {
		return writeCBOR(out, rec)
	}
	return writeText(out, rec, glyph, terminalWidth())
}

// openBackend opens the requested backend. A font directory always selects
// the software backend, which is the only one that takes one.
func openBackend(opts options) (crossfont.Rasterizer, error) {
	dpr := float32(opts.dpr)
	if opts.dir != "" {
		if opts.backend != "" && opts.backend != crossfont.BackendSoftware {
			return nil, fmt.Errorf("-dir requires the %s backend", crossfont.BackendSoftware)
		}
		r, err := software.New(dpr, software.WithFontDirs(opts.dir))
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	if opts.backend == "" {
		return crossfont.OpenDefault(dpr)
	}
	return crossfont.Open(opts.backend, dpr)
}

func styleFor(opts options) crossfont.Style {
	if opts.style != "" {
		return crossfont.SpecificStyle(opts.style)
	}
	slant, weight := crossfont.SlantNormal, crossfont.WeightNormal
	if opts.italic {
		slant = crossfont.SlantItalic
	}
	if opts.bold {
		weight = crossfont.WeightBold
	}
	return crossfont.DescribedStyle(slant, weight)
}

func glyphKeyFor(opts options, key crossfont.FontKey, size crossfont.Size) (crossfont.GlyphKey, error) {
	if opts.index >= 0 {
		return crossfont.IndexKey(uint32(opts.index), key, size), nil //nolint:gosec // checked non-negative
	}
	ch, n := utf8.DecodeRuneInString(opts.char)
	if n == 0 || n != len(opts.char) || ch == utf8.RuneError {
		return crossfont.GlyphKey{}, fmt.Errorf("-char must be a single character, got %q", opts.char)
	}
	return crossfont.CharKey(ch, key, size), nil
}
