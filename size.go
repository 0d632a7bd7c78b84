package crossfont

import (
	"math"
	"strconv"
)

// SizeFactor is the scale between a Size and its point size.
// A factor of 2 gives half-point precision.
const SizeFactor = 2.0

// Size is a font size in points, stored as an integer so that it can be
// hashed and compared without floating-point instability.
//
// The zero Size is 0pt. Size values are comparable and may be used as map keys.
type Size struct {
	v int16
}

// Bounds of the representable sizes.
var (
	MaxSize = Size{math.MaxInt16}
	MinSize = Size{math.MinInt16}
)

// NewSize creates a Size from a size in points.
//
// The value is truncated toward zero to the nearest half point, so callers
// lose up to 0.5pt of precision (0.25pt on average). NaN yields a zero Size
// and values outside the representable range clamp to MaxSize or MinSize.
func NewSize(points float32) Size {
	return Size{quantize(float64(points) * SizeFactor)}
}

// Factor returns the scale factor between Size and point size.
func Factor() float32 {
	return SizeFactor
}

// Points returns the size in points.
func (s Size) Points() float32 {
	return float32(s.v) / SizeFactor
}

// Raw returns the quantized integer encoding (points × SizeFactor).
func (s Size) Raw() int16 {
	return s.v
}

// Add returns s + o, saturating at MaxSize and MinSize.
func (s Size) Add(o Size) Size {
	return Size{saturate(int32(s.v) + int32(o.v))}
}

// AddPoints converts points with NewSize and adds it to s.
func (s Size) AddPoints(points float32) Size {
	return s.Add(NewSize(points))
}

// Mul returns the product of the raw encodings of s and o, saturating at
// MaxSize and MinSize.
//
// The factor is converted like every other Size, so multiplying by
// NewSize(2) multiplies the raw value by 4.
func (s Size) Mul(o Size) Size {
	return Size{saturate(int32(s.v) * int32(o.v))}
}

// MulPoints converts points with NewSize and multiplies s by it.
func (s Size) MulPoints(points float32) Size {
	return s.Mul(NewSize(points))
}

// String returns the size in points, e.g. "12.5pt".
func (s Size) String() string {
	return strconv.FormatFloat(float64(s.Points()), 'f', -1, 32) + "pt"
}

// quantize truncates v toward zero and clamps it to the int16 range.
func quantize(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

func saturate(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
