package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlace(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want Placement
	}{
		{
			name: "equal lengths",
			run:  Run{MinEvent: 5, Get: []uint64{1, 2}, Frib: []uint64{1, 2}},
			want: Placement{GetEvents: []uint64{5, 6}, FribEvents: []uint64{5, 6}, MaxEvent: 7},
		},
		{
			name: "longer FRIB",
			run:  Run{Get: []uint64{1}, Frib: []uint64{1, 2, 3}},
			want: Placement{GetEvents: []uint64{0}, FribEvents: []uint64{0, 1, 2}, MaxEvent: 3},
		},
		{
			name: "GET gap shifts later parts",
			run:  Run{Get: []uint64{1, 2}, Frib: []uint64{1, 2, 3}, GetGaps: []int{1}},
			want: Placement{GetEvents: []uint64{0, 2}, FribEvents: []uint64{0, 1, 2}, MaxEvent: 3},
		},
		{
			name: "empty",
			run:  Run{MinEvent: 3},
			want: Placement{MaxEvent: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run.Place())
		})
	}
}

func TestPayloadsDependOnOrdinal(t *testing.T) {
	assert.NotEqual(t, GetTraces(0).Data, GetTraces(1).Data)
	assert.NotEqual(t, FribTraces(0).Data, FribTraces(1).Data)
	assert.Len(t, GetTraces(3).Data, GetRows*GetCols)
	assert.Len(t, FribTraces(3).Data, FribRows*FribCols)
	assert.Equal(t, uint32(4), FribEventNumber(3))
}

func TestSeries(t *testing.T) {
	s := Series(50)
	assert.Len(t, s, 50)
	for i := 1; i < len(s); i++ {
		d := s[i] - s[i-1]
		assert.GreaterOrEqual(t, d, uint64(2000))
		assert.Less(t, d, uint64(7000))
	}

	extra := WithExtra(s, 10)
	assert.Len(t, extra, 51)
	assert.Equal(t, s[9]+500, extra[10])
	assert.Equal(t, s[10], extra[11])
}
