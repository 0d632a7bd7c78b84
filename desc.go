package crossfont

import "fmt"

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// Slant is the slant of a font face.
type Slant uint8

const (
	// SlantNormal is an upright face.
	SlantNormal Slant = iota
	// SlantItalic is a true italic face.
	SlantItalic
	// SlantOblique is a slanted version of the upright face.
	SlantOblique
)

// String returns the string representation of the slant.
func (s Slant) String() string {
	switch s {
	case SlantNormal:
		return "Normal"
	case SlantItalic:
		return "Italic"
	case SlantOblique:
		return "Oblique"
	default:
		return unknownStr
	}
}

// Weight is the weight of a font face.
type Weight uint8

const (
	// WeightNormal is the regular weight.
	WeightNormal Weight = iota
	// WeightBold is the bold weight.
	WeightBold
)

// String returns the string representation of the weight.
func (w Weight) String() string {
	switch w {
	case WeightNormal:
		return "Normal"
	case WeightBold:
		return "Bold"
	default:
		return unknownStr
	}
}

// StyleKind tells which representation a Style holds.
type StyleKind uint8

const (
	// StyleDescription selects a face by slant and weight.
	StyleDescription StyleKind = iota
	// StyleSpecific selects a face by its style name, e.g. "Semibold Italic".
	StyleSpecific
)

// String returns the string representation of the style kind.
func (k StyleKind) String() string {
	switch k {
	case StyleDescription:
		return "Description"
	case StyleSpecific:
		return "Specific"
	default:
		return unknownStr
	}
}

// Style selects a face within a font family.
//
// A Style holds exactly one of two representations: a style name created with
// SpecificStyle, or a slant/weight pair created with DescribedStyle. Two styles
// of different kinds are never equal, even when they describe the same face.
//
// The zero Style is DescribedStyle(SlantNormal, WeightNormal).
type Style struct {
	kind   StyleKind
	name   string
	slant  Slant
	weight Weight
}

// SpecificStyle returns a Style selecting the face with the given style name.
func SpecificStyle(name string) Style {
	return Style{kind: StyleSpecific, name: name}
}

// DescribedStyle returns a Style selecting a face by slant and weight.
func DescribedStyle(slant Slant, weight Weight) Style {
	return Style{kind: StyleDescription, slant: slant, weight: weight}
}

// Kind returns which representation the style holds.
func (s Style) Kind() StyleKind {
	return s.kind
}

// Specific returns the style name if s was created with SpecificStyle.
func (s Style) Specific() (string, bool) {
	if s.kind != StyleSpecific {
		return "", false
	}
	return s.name, true
}

// Description returns the slant and weight if s was created with DescribedStyle.
func (s Style) Description() (Slant, Weight, bool) {
	if s.kind != StyleDescription {
		return SlantNormal, WeightNormal, false
	}
	return s.slant, s.weight, true
}

// String returns the style name, or "slant=..., weight=..." for a description.
func (s Style) String() string {
	switch s.kind {
	case StyleSpecific:
		return s.name
	case StyleDescription:
		return fmt.Sprintf("slant=%s, weight=%s", s.slant, s.weight)
	default:
		return unknownStr
	}
}

// FontDesc describes a requested font: a family name and a style.
//
// FontDesc is comparable; two descriptors are interchangeable only if both the
// name and the style are identical.
type FontDesc struct {
	Name  string
	Style Style
}

// NewFontDesc creates a FontDesc.
func NewFontDesc(name string, style Style) FontDesc {
	return FontDesc{Name: name, Style: style}
}

// String returns "name - style".
func (d FontDesc) String() string {
	return d.Name + " - " + d.Style.String()
}
