package software

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gogpu/crossfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// builtinFonts are the Go font families bundled with x/image.
var builtinFonts = [][]byte{
	goregular.TTF,
	gobold.TTF,
	goitalic.TTF,
	gobolditalic.TTF,
	gomedium.TTF,
	gomediumitalic.TTF,
	gomono.TTF,
	gomonobold.TTF,
	gomonoitalic.TTF,
	gomonobolditalic.TTF,
	gosmallcaps.TTF,
	gosmallcapsitalic.TTF,
}

// fontExtensions are the file extensions scanned in font directories.
var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
	".otc": true,
}

// entry is one font face known to the library. The face itself is parsed on
// first use.
type entry struct {
	family string
	style  string
	bold   bool
	italic bool

	path  string // empty for in-memory fonts
	data  []byte // nil for file fonts
	index int

	face    *face
	openErr error
}

// library indexes the available faces by case-folded family name.
type library struct {
	entries   []*entry
	families  map[string][]*entry
	preferred []string          // case-folded families searched first for fallback
	fallback  map[rune]*entry   // nil value: no face covers the rune
	files     map[string][]byte // contents of opened font files, by path
	caser     cases.Caser
}

func newLibrary() *library {
	return &library{
		families: make(map[string][]*entry),
		fallback: make(map[rune]*entry),
		files:    make(map[string][]byte),
		caser:    cases.Fold(),
	}
}

// buildLibrary collects the faces selected by cfg.
func buildLibrary(cfg *config) *library {
	lib := newLibrary()
	for _, family := range cfg.fallback {
		lib.preferred = append(lib.preferred, lib.caser.String(family))
	}
	if cfg.builtinFonts {
		for _, data := range builtinFonts {
			lib.addData(data, "")
		}
	}
	for _, data := range cfg.fontData {
		lib.addData(data, "")
	}
	if cfg.systemFonts {
		dirs := cfg.fontDirs
		if len(dirs) == 0 {
			dirs = defaultFontDirs()
		}
		for _, dir := range dirs {
			lib.scanDir(dir)
		}
	}
	return lib
}

// defaultFontDirs returns the platform's usual font directories.
func defaultFontDirs() []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		if windir := os.Getenv("WINDIR"); windir != "" {
			dirs = append(dirs, filepath.Join(windir, "Fonts"))
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin", "ios":
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		dirs = append(dirs, "/Library/Fonts", "/System/Library/Fonts")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dirs = append(dirs, filepath.Join(xdg, "fonts"))
		} else if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"))
		}
		dirs = append(dirs, "/usr/share/fonts", "/usr/local/share/fonts")
	}
	return dirs
}

// scanDir adds every font file below dir. Missing directories are skipped.
func (l *library) scanDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger().Debug("software: skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if d.IsDir() || !fontExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger().Warn("software: cannot read font file", "path", path, "err", err)
			return nil
		}
		l.addData(data, path)
		return nil
	})
	if err != nil {
		logger().Debug("software: font directory not scanned", "dir", dir, "err", err)
	}
}

// addData registers every face of a font file or collection. File fonts do
// not keep their data; it is read again when a face of the file is opened.
func (l *library) addData(data []byte, path string) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		logger().Warn("software: skipping invalid font", "path", path, "err", err)
		return
	}
	var buf sfnt.Buffer
	for i := range coll.NumFonts() {
		f, err := coll.Font(i)
		if err != nil {
			logger().Warn("software: skipping invalid font", "path", path, "index", i, "err", err)
			continue
		}
		family, style := fontNames(f, &buf)
		if family == "" {
			continue
		}
		e := &entry{
			family: family,
			style:  style,
			path:   path,
			index:  i,
		}
		if path == "" {
			e.data = data
		}
		e.bold, e.italic = styleFlags(l.caser.String(style))
		l.add(e)
	}
}

func (l *library) add(e *entry) {
	l.entries = append(l.entries, e)
	key := l.caser.String(e.family)
	l.families[key] = append(l.families[key], e)
}

// styleFlags derives bold and italic from a case-folded style name.
func styleFlags(style string) (bold, italic bool) {
	for _, w := range []string{"bold", "black", "heavy"} {
		if strings.Contains(style, w) {
			bold = true
			break
		}
	}
	italic = strings.Contains(style, "italic") || strings.Contains(style, "oblique")
	return bold, italic
}

// open returns the parsed face of e, parsing it on first use. The faces of
// one collection file share its contents.
func (l *library) open(e *entry) (*face, error) {
	if e.face != nil || e.openErr != nil {
		return e.face, e.openErr
	}
	data, err := l.source(e, nil)
	if err != nil {
		e.openErr = err
		return nil, err
	}
	if e.path != "" {
		l.files[e.path] = data
	}
	e.face, e.openErr = openFace(data, e.index)
	return e.face, e.openErr
}

// source returns the font data of e. Files that are not open yet are read
// into scratch when it is non-nil, so that coverage checks do not keep them.
func (l *library) source(e *entry, scratch map[string][]byte) ([]byte, error) {
	if e.data != nil {
		return e.data, nil
	}
	if data, ok := l.files[e.path]; ok {
		return data, nil
	}
	if data, ok := scratch[e.path]; ok {
		return data, nil
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}
	if scratch != nil {
		scratch[e.path] = data
	}
	return data, nil
}

// isEmpty reports whether the library has no faces.
func (l *library) isEmpty() bool {
	return len(l.entries) == 0
}

// match selects the entry for desc and the synthesis the style still needs.
func (l *library) match(desc crossfont.FontDesc, synthesis bool) (*entry, synth, error) {
	candidates := l.families[l.caser.String(desc.Name)]
	if len(candidates) == 0 {
		return nil, synth{}, &crossfont.FontNotFoundError{Desc: desc}
	}

	if name, ok := desc.Style.Specific(); ok {
		want := l.caser.String(name)
		for _, e := range candidates {
			if l.caser.String(e.style) == want {
				return e, synth{}, nil
			}
		}
		e := l.best(candidates, false, false)
		logger().Debug("software: style not found, using regular face",
			"family", desc.Name, "style", name, "face", e.style)
		return e, synth{}, nil
	}

	want := wantedStyle(desc.Style)
	e := l.best(candidates, want.bold, want.oblique)
	if !synthesis {
		return e, synth{}, nil
	}
	return e, want.missingFrom(e), nil
}

// wantedStyle returns the bold and slanted appearance a described style asks
// for. Specific styles ask for nothing.
func wantedStyle(style crossfont.Style) synth {
	slant, weight, ok := style.Description()
	if !ok {
		return synth{}
	}
	return synth{
		bold:    weight == crossfont.WeightBold,
		oblique: slant != crossfont.SlantNormal,
	}
}

// missingFrom returns the part of the wanted appearance e lacks.
func (s synth) missingFrom(e *entry) synth {
	return synth{
		bold:    s.bold && !e.bold,
		oblique: s.oblique && !e.italic,
	}
}

// best returns the candidate closest to the wanted flags. Weight counts
// twice as much as slant; ties prefer regular-named faces, then the first
// registered.
func (l *library) best(candidates []*entry, bold, italic bool) *entry {
	var (
		best      *entry
		bestScore = -1
	)
	for _, e := range candidates {
		score := 0
		if e.bold == bold {
			score += 4
		}
		if e.italic == italic {
			score += 2
		}
		if isRegularName(l.caser.String(e.style)) {
			score++
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	return best
}

func isRegularName(style string) bool {
	switch style {
	case "regular", "normal", "book", "roman":
		return true
	}
	return false
}

// fallbackFor returns an opened entry covering r. The preferred families are
// searched first, then the rest of the library. The cmap of a face that is
// not open yet is read without keeping the face, so only the face that
// covers r stays in memory. Results are remembered per rune.
func (l *library) fallbackFor(r rune) (*entry, bool) {
	if e, ok := l.fallback[r]; ok {
		return e, e != nil
	}
	scratch := make(map[string][]byte)
	for _, e := range l.fallbackOrder() {
		if e.openErr != nil || !l.covers(e, r, scratch) {
			continue
		}
		if data, ok := scratch[e.path]; ok {
			l.files[e.path] = data
		}
		if _, err := l.open(e); err != nil {
			continue
		}
		l.fallback[r] = e
		return e, true
	}
	l.fallback[r] = nil
	return nil, false
}

// covers reports whether the cmap of e maps r.
func (l *library) covers(e *entry, r rune, scratch map[string][]byte) bool {
	if e.face != nil {
		_, ok := e.face.glyphIndex(r)
		return ok
	}
	data, err := l.source(e, scratch)
	if err != nil {
		logger().Debug("software: cannot read fallback candidate", "path", e.path, "err", err)
		return false
	}
	return cmapCovers(data, e.index, r)
}

// fallbackOrder returns the entries of the preferred families followed by
// every other entry, in registration order.
func (l *library) fallbackOrder() []*entry {
	order := make([]*entry, 0, len(l.entries))
	seen := make(map[*entry]bool)
	for _, family := range l.preferred {
		for _, e := range l.families[family] {
			if !seen[e] {
				seen[e] = true
				order = append(order, e)
			}
		}
	}
	for _, e := range l.entries {
		if !seen[e] {
			order = append(order, e)
		}
	}
	return order
}
