package timesync

import (
	"errors"
	"fmt"
)

// Channel identifies one of the two acquisition streams.
type Channel int

const (
	// GET is the tracking detector front-end stream.
	GET Channel = iota
	// FRIB is the facility DAQ stream.
	FRIB
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case GET:
		return "GET"
	case FRIB:
		return "FRIB"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ErrNotFound is returned by a TimestampSource when no event exists at the
// requested ordinal.
var ErrNotFound = errors.New("timestamp not found")

// TimestampSource gives read-only access to per-channel timestamps.
//
// Ordinals are 0-based and contiguous per channel. The two channels may
// have different lengths.
type TimestampSource interface {
	Len(ch Channel) int
	Timestamp(ch Channel, ordinal int) (uint64, error)
}

// Series is the ordered timestamp sequence of one channel.
type Series []uint64

// DeltaSeries holds inter-event intervals. Element 0 is always 0.
type DeltaSeries []int64

// Collect reads every timestamp of ch from src in ordinal order.
func Collect(src TimestampSource, ch Channel) (Series, error) {
	n := src.Len(ch)
	if n <= 0 {
		return Series{}, nil
	}
	series := make(Series, n)
	for i := 0; i < n; i++ {
		ts, err := src.Timestamp(ch, i)
		if err != nil {
			return nil, fmt.Errorf("collect %s ordinal %d: %w", ch, i, err)
		}
		series[i] = ts
	}
	return series, nil
}

// Deltas returns the first differences of s.
//
// An empty series yields an empty result and a single timestamp yields [0].
// Differences are signed so that a non-monotonic pair produces a negative
// interval instead of wrapping.
func Deltas(s Series) DeltaSeries {
	if len(s) == 0 {
		return DeltaSeries{}
	}
	d := make(DeltaSeries, len(s))
	for i := 1; i < len(s); i++ {
		//nolint:gosec // counter rollover is out of scope; values fit int64
		d[i] = int64(s[i]) - int64(s[i-1])
	}
	return d
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
