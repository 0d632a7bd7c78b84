package crossfont

// Metrics holds font-wide layout metrics in pixels.
// For a given FontKey and Size they are stable until the device pixel ratio
// changes.
type Metrics struct {
	// AverageAdvance is the typical horizontal advance of a glyph.
	// Terminals use it as the cell width.
	AverageAdvance float64

	// LineHeight is the distance between consecutive baselines.
	LineHeight float64

	// Descent is the distance from the baseline to the bottom of the font.
	// It is negative (below the baseline).
	Descent float32

	// UnderlinePosition is the offset of the underline centre from the baseline.
	// Negative values lie below the baseline.
	UnderlinePosition float32

	// UnderlineThickness is the stroke width of the underline.
	UnderlineThickness float32

	// StrikeoutPosition is the offset of the strikeout centre from the baseline.
	StrikeoutPosition float32

	// StrikeoutThickness is the stroke width of the strikeout.
	StrikeoutThickness float32
}
