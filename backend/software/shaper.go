package software

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/crossfont"
	"golang.org/x/text/unicode/bidi"
)

// shaper shapes text with go-text/typesetting's HarfBuzz port. Parsed go-text
// fonts are cached per face.
type shaper struct {
	hb    shaping.HarfbuzzShaper
	fonts map[*face]*gotext.Font
}

func newShaper() *shaper {
	return &shaper{fonts: make(map[*face]*gotext.Font)}
}

// shape converts text to glyphs of f at px pixels per em.
func (s *shaper) shape(text string, f *face, px float64) ([]crossfont.ShapeInfo, error) {
	if text == "" {
		return nil, nil
	}
	gf, err := s.font(f)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: detectDirection(runes),
		Face:      gotext.NewFace(gf),
		Size:      floatToFixed(px),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	output := s.hb.Shape(input)

	infos := make([]crossfont.ShapeInfo, len(output.Glyphs))
	for i, g := range output.Glyphs {
		infos[i] = crossfont.ShapeInfo{
			Codepoint: uint32(g.GlyphID),
			Cluster:   uint32(g.TextIndex()), //nolint:gosec // rune index of the input
		}
	}
	return infos, nil
}

// font returns the go-text font of f, parsing it on first use.
func (s *shaper) font(f *face) (*gotext.Font, error) {
	if gf, ok := s.fonts[f]; ok {
		return gf, nil
	}

	reader := bytes.NewReader(f.data)
	var gf *gotext.Font
	if isCollection(f.data) {
		faces, err := gotext.ParseTTC(reader)
		if err != nil {
			return nil, err
		}
		if f.index >= len(faces) {
			return nil, fmt.Errorf("software: collection has no font %d", f.index)
		}
		gf = faces[f.index].Font
	} else {
		parsed, err := gotext.ParseTTF(reader)
		if err != nil {
			return nil, err
		}
		gf = parsed.Font
	}
	if gf == nil {
		return nil, errors.New("software: shaping font unavailable")
	}

	s.fonts[f] = gf
	return gf, nil
}

// detectDirection returns right-to-left when the first strong character of
// runes is right-to-left.
func detectDirection(runes []rune) di.Direction {
	for _, r := range runes {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return di.DirectionRTL
		case bidi.L:
			return di.DirectionLTR
		}
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space character.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
