package crossfont

import (
	"fmt"
	"slices"
)

// PixelFormat is the layout of a BitmapBuffer.
type PixelFormat uint8

const (
	// FormatRGB is a three-channel alpha mask. Each channel holds coverage and
	// is composited with the text colour.
	FormatRGB PixelFormat = iota
	// FormatRGBA is four-channel colour with premultiplied alpha, used for
	// colour glyphs such as emoji. It is composited as-is.
	FormatRGBA
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return unknownStr
	}
}

// BytesPerPixel returns the number of bytes of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatRGBA {
		return 4
	}
	return 3
}

// BitmapBuffer is the pixel payload of a rasterized glyph.
// Renderers must branch on Format to select the compositing formula.
//
// The zero BitmapBuffer is an empty RGB buffer.
type BitmapBuffer struct {
	format PixelFormat
	data   []byte
}

// RGBBuffer wraps an RGB alpha mask. The slice is not copied.
func RGBBuffer(data []byte) BitmapBuffer {
	return BitmapBuffer{format: FormatRGB, data: data}
}

// RGBABuffer wraps premultiplied RGBA pixels. The slice is not copied.
func RGBABuffer(data []byte) BitmapBuffer {
	return BitmapBuffer{format: FormatRGBA, data: data}
}

// Format returns the pixel layout of the buffer.
func (b BitmapBuffer) Format() PixelFormat {
	return b.format
}

// Bytes returns the pixel data, row-major without padding.
func (b BitmapBuffer) Bytes() []byte {
	return b.data
}

// Len returns the length of the pixel data in bytes.
func (b BitmapBuffer) Len() int {
	return len(b.data)
}

// String reports the format and length, not the pixels.
func (b BitmapBuffer) String() string {
	return fmt.Sprintf("%s(len=%d)", b.format, len(b.data))
}

// RasterizedGlyph is the output of rasterizing one glyph.
//
// Top is the distance from the baseline to the top row of the bitmap (positive
// upward) and Left is the distance from the pen position to the first column.
// Advance is the pen movement in whole pixels.
//
// The zero RasterizedGlyph is a blank glyph: no pixels, no advance, and an
// empty RGB buffer. Callers can draw it without special-casing.
type RasterizedGlyph struct {
	// Character is the requested character, or 0 when the glyph was requested
	// by index or as a placeholder.
	Character rune

	Width  int32
	Height int32
	Top    int32
	Left   int32

	Advance [2]int32

	Buffer BitmapBuffer
}

// IsBlank reports whether the glyph has no pixels to draw.
func (g RasterizedGlyph) IsBlank() bool {
	return g.Width == 0 || g.Height == 0 || g.Buffer.Len() == 0
}

// Clone returns a copy of g that does not share pixel data.
func (g RasterizedGlyph) Clone() RasterizedGlyph {
	g.Buffer.data = slices.Clone(g.Buffer.data)
	return g
}

// String summarizes the glyph geometry.
func (g RasterizedGlyph) String() string {
	return fmt.Sprintf("glyph %q %dx%d top=%d left=%d advance=%v %s",
		g.Character, g.Width, g.Height, g.Top, g.Left, g.Advance, g.Buffer)
}
