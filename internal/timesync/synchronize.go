package timesync

import "fmt"

// Result is the outcome of synchronizing one run.
type Result struct {
	GetEvents  int       `json:"get_events"`
	FribEvents int       `json:"frib_events"`
	Alignment  Alignment `json:"alignment"`
	Plan       Plan      `json:"plan"`
}

// Synchronize reads both channels from src and builds the synchronized plan.
func Synchronize(src TimestampSource, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("synchronize: %w", err)
	}
	getTS, err := Collect(src, GET)
	if err != nil {
		return nil, fmt.Errorf("synchronize: %w", err)
	}
	fribTS, err := Collect(src, FRIB)
	if err != nil {
		return nil, fmt.Errorf("synchronize: %w", err)
	}
	return SynchronizeSeries(getTS, fribTS, p), nil
}

// SynchronizeSeries runs the engine on already collected series.
func SynchronizeSeries(getTS, fribTS Series, p Params) *Result {
	get := Deltas(getTS)
	frib := Deltas(fribTS)
	a := Locate(get, frib, p)
	return &Result{
		GetEvents:  len(getTS),
		FribEvents: len(fribTS),
		Alignment:  a,
		Plan:       BuildPlan(get, frib, a, p),
	}
}
