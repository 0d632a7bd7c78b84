package crossfont

import (
	"fmt"
	"sync/atomic"
)

// fontKeyCounter issues FontKey tokens. It is the only process-wide mutable
// state in this package.
var fontKeyCounter atomic.Uint32

// FontKey is an opaque handle to a font loaded by a Rasterizer.
//
// Keys are unique for the lifetime of the process and are never reused. A key
// carries no information about the font; it must be resolved through the
// Rasterizer that issued it.
type FontKey struct {
	token uint32
}

// NextFontKey returns a new, globally unique FontKey.
// It is safe for concurrent use.
func NextFontKey() FontKey {
	return FontKey{token: fontKeyCounter.Add(1) - 1}
}

// Token returns the numeric token of the key.
func (k FontKey) Token() uint32 {
	return k.token
}

// String returns "FontKey(n)".
func (k FontKey) String() string {
	return fmt.Sprintf("FontKey(%d)", k.token)
}

// KeyKind tells which identity a KeyType holds.
type KeyKind uint8

const (
	// KeyPlaceholder is a glyph that never renders anything (cursors, spacers).
	KeyPlaceholder KeyKind = iota
	// KeyGlyphIndex is a glyph index resolved by shaping.
	KeyGlyphIndex
	// KeyChar is a character that has not been mapped to a glyph index yet.
	KeyChar
)

// String returns the string representation of the key kind.
func (k KeyKind) String() string {
	switch k {
	case KeyPlaceholder:
		return "Placeholder"
	case KeyGlyphIndex:
		return "GlyphIndex"
	case KeyChar:
		return "Char"
	default:
		return unknownStr
	}
}

// KeyType identifies a glyph within a font: a glyph index, a character, or
// the placeholder. The zero KeyType is the placeholder.
type KeyType struct {
	kind  KeyKind
	value uint32
}

// Placeholder is the KeyType of a glyph that should never render as anything.
var Placeholder = KeyType{}

// GlyphIndex returns a KeyType for a glyph index in the font.
func GlyphIndex(index uint32) KeyType {
	return KeyType{kind: KeyGlyphIndex, value: index}
}

// Char returns a KeyType for a character.
func Char(r rune) KeyType {
	return KeyType{kind: KeyChar, value: uint32(r)}
}

// Kind returns which identity k holds.
func (k KeyType) Kind() KeyKind {
	return k.kind
}

// GlyphIndex returns the glyph index if k holds one.
func (k KeyType) GlyphIndex() (uint32, bool) {
	if k.kind != KeyGlyphIndex {
		return 0, false
	}
	return k.value, true
}

// Char returns the character if k holds one.
func (k KeyType) Char() (rune, bool) {
	if k.kind != KeyChar {
		return 0, false
	}
	return rune(k.value), true
}

// IsPlaceholder reports whether k is the placeholder.
func (k KeyType) IsPlaceholder() bool {
	return k.kind == KeyPlaceholder
}

// String returns a readable form such as Char('a') or GlyphIndex(36).
func (k KeyType) String() string {
	switch k.kind {
	case KeyGlyphIndex:
		return fmt.Sprintf("GlyphIndex(%d)", k.value)
	case KeyChar:
		return fmt.Sprintf("Char(%q)", rune(k.value))
	default:
		return "Placeholder"
	}
}

// GlyphKey identifies one rasterizable glyph: what to draw, from which font,
// at which size. The same character at another size or in another font is a
// different key.
type GlyphKey struct {
	Glyph KeyType
	Font  FontKey
	Size  Size
}

// CharKey returns the GlyphKey of a character.
func CharKey(r rune, font FontKey, size Size) GlyphKey {
	return GlyphKey{Glyph: Char(r), Font: font, Size: size}
}

// IndexKey returns the GlyphKey of a glyph index.
func IndexKey(index uint32, font FontKey, size Size) GlyphKey {
	return GlyphKey{Glyph: GlyphIndex(index), Font: font, Size: size}
}

// String returns a readable form of the key.
func (k GlyphKey) String() string {
	return fmt.Sprintf("%s %s %s", k.Glyph, k.Font, k.Size)
}
