package timesync

import "fmt"

// Params holds the tick thresholds used by Locate and BuildPlan.
type Params struct {
	// AlignTolerance is the largest first-interval difference for which the
	// first events of both channels are considered co-temporal.
	AlignTolerance int64

	// Depth is the pattern window size. Depth-1 consecutive deltas are
	// compared per hypothesis.
	Depth int

	// MatchThreshold is the exclusive upper bound of the accumulated window
	// difference that counts as a pattern match.
	MatchThreshold int64

	// SkipThreshold is the jitter above which one FRIB position is skipped.
	SkipThreshold int64

	// AnomalyThreshold is the jitter above which a pair is logged as an
	// anomaly.
	AnomalyThreshold int64
}

// DefaultParams returns the thresholds used by the acquisition system.
func DefaultParams() Params {
	return Params{
		AlignTolerance:   100,
		Depth:            5,
		MatchThreshold:   5,
		SkipThreshold:    1000,
		AnomalyThreshold: 5,
	}
}

// Validate reports the first invalid threshold.
func (p Params) Validate() error {
	switch {
	case p.AlignTolerance < 0:
		return fmt.Errorf("align tolerance must be >= 0, got %d", p.AlignTolerance)
	case p.Depth < 2:
		return fmt.Errorf("depth must be >= 2, got %d", p.Depth)
	case p.MatchThreshold <= 0:
		return fmt.Errorf("match threshold must be > 0, got %d", p.MatchThreshold)
	case p.AnomalyThreshold < 0:
		return fmt.Errorf("anomaly threshold must be >= 0, got %d", p.AnomalyThreshold)
	case p.SkipThreshold <= p.AnomalyThreshold:
		return fmt.Errorf("skip threshold (%d) must exceed anomaly threshold (%d)", p.SkipThreshold, p.AnomalyThreshold)
	}
	return nil
}
