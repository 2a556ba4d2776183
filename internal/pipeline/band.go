package pipeline

// Band is the presentation bucket of a probability.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

const (
	mediumFrom = 0.33
	highFrom   = 0.66
)

func BandFor(p float64) Band {
	switch {
	case p < mediumFrom:
		return BandLow
	case p < highFrom:
		return BandMedium
	default:
		return BandHigh
	}
}
