package crossfont

import (
	"errors"
	"fmt"
)

// Sentinel errors of the rasterizer contract.
var (
	// ErrMetricsNotFound is returned when a font face has no usable metrics.
	ErrMetricsNotFound = errors.New("crossfont: metrics not found")

	// ErrUnknownFontKey is returned when a FontKey was not issued by the
	// Rasterizer it is used with. It signals caller misuse, not a transient
	// condition.
	ErrUnknownFontKey = errors.New("crossfont: invalid font key")
)

// FontNotFoundError is returned when no font matches a descriptor.
type FontNotFoundError struct {
	Desc FontDesc
}

func (e *FontNotFoundError) Error() string {
	return fmt.Sprintf("crossfont: font %q not found", e.Desc.String())
}

// MissingGlyphError is returned when a glyph could not be found in any font.
// Glyph holds the best glyph the backend produced, usually the font's
// missing-glyph box, so callers can still draw something.
type MissingGlyphError struct {
	Glyph RasterizedGlyph
}

func (e *MissingGlyphError) Error() string {
	if e.Glyph.Character == 0 {
		return "crossfont: glyph not found"
	}
	return fmt.Sprintf("crossfont: glyph for character %q not found", e.Glyph.Character)
}

// PlatformError reports a failure of the underlying font engine that has no
// more specific kind.
type PlatformError struct {
	Msg string
	Err error
}

// NewPlatformError returns a PlatformError with the given message.
func NewPlatformError(msg string) *PlatformError {
	return &PlatformError{Msg: msg}
}

// WrapPlatformError returns a PlatformError for an engine error.
func WrapPlatformError(err error, msg string) *PlatformError {
	return &PlatformError{Msg: msg, Err: err}
}

func (e *PlatformError) Error() string {
	if e.Err == nil {
		return "crossfont: " + e.Msg
	}
	return "crossfont: " + e.Msg + ": " + e.Err.Error()
}

// Unwrap returns the engine error, if any.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies errors of the rasterizer contract.
type ErrorKind uint8

const (
	// KindOther is an error outside the contract's error set.
	KindOther ErrorKind = iota
	KindFontNotFound
	KindMetricsNotFound
	KindMissingGlyph
	KindUnknownFontKey
	KindPlatform
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindFontNotFound:
		return "FontNotFound"
	case KindMetricsNotFound:
		return "MetricsNotFound"
	case KindMissingGlyph:
		return "MissingGlyph"
	case KindUnknownFontKey:
		return "UnknownFontKey"
	case KindPlatform:
		return "PlatformError"
	default:
		return "Other"
	}
}

// KindOf returns the kind of err. Wrapped errors are classified by the
// contract error they wrap. A nil error is KindOther.
func KindOf(err error) ErrorKind {
	var (
		notFound *FontNotFoundError
		missing  *MissingGlyphError
		platform *PlatformError
	)
	switch {
	case err == nil:
		return KindOther
	case errors.As(err, &notFound):
		return KindFontNotFound
	case errors.Is(err, ErrMetricsNotFound):
		return KindMetricsNotFound
	case errors.As(err, &missing):
		return KindMissingGlyph
	case errors.Is(err, ErrUnknownFontKey):
		return KindUnknownFontKey
	case errors.As(err, &platform):
		return KindPlatform
	default:
		return KindOther
	}
}
