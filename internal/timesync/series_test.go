package timesync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves timestamps from in-memory series.
type sliceSource struct {
	get, frib Series
	missing   map[Channel]int // ordinal that returns ErrNotFound
}

func (s *sliceSource) series(ch Channel) Series {
	if ch == GET {
		return s.get
	}
	return s.frib
}

func (s *sliceSource) Len(ch Channel) int {
	return len(s.series(ch))
}

func (s *sliceSource) Timestamp(ch Channel, ordinal int) (uint64, error) {
	if idx, ok := s.missing[ch]; ok && idx == ordinal {
		return 0, fmt.Errorf("%s event %d: %w", ch, ordinal, ErrNotFound)
	}
	series := s.series(ch)
	if ordinal < 0 || ordinal >= len(series) {
		return 0, ErrNotFound
	}
	return series[ordinal], nil
}

func TestDeltas(t *testing.T) {
	tests := []struct {
		name  string
		input Series
		want  DeltaSeries
	}{
		{name: "empty", input: Series{}, want: DeltaSeries{}},
		{name: "nil", input: nil, want: DeltaSeries{}},
		{name: "single", input: Series{42}, want: DeltaSeries{0}},
		{name: "regular", input: Series{0, 100, 200, 300}, want: DeltaSeries{0, 100, 100, 100}},
		{name: "irregular", input: Series{1000, 1250, 4000, 4001}, want: DeltaSeries{0, 250, 2750, 1}},
		{name: "non-monotonic", input: Series{500, 200, 700}, want: DeltaSeries{0, -300, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deltas(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.input))
		})
	}
}

func TestCollect(t *testing.T) {
	src := &sliceSource{
		get:  Series{10, 20, 30},
		frib: Series{5, 15},
	}

	get, err := Collect(src, GET)
	require.NoError(t, err)
	assert.Equal(t, Series{10, 20, 30}, get)

	frib, err := Collect(src, FRIB)
	require.NoError(t, err)
	assert.Equal(t, Series{5, 15}, frib)
}

func TestCollect_Empty(t *testing.T) {
	src := &sliceSource{}

	got, err := Collect(src, GET)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollect_PropagatesNotFound(t *testing.T) {
	src := &sliceSource{
		get:     Series{10, 20, 30},
		missing: map[Channel]int{GET: 1},
	}

	_, err := Collect(src, GET)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "GET ordinal 1")
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "GET", GET.String())
	assert.Equal(t, "FRIB", FRIB.String())
	assert.Equal(t, "Channel(7)", Channel(7).String())
}
