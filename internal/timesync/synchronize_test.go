package timesync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronize(t *testing.T) {
	base := irregularSeries(30, 12)
	src := &sliceSource{
		get:  base,
		frib: insertAt(base, 0, base[0]-45),
	}

	res, err := Synchronize(src, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 30, res.GetEvents)
	assert.Equal(t, 31, res.FribEvents)
	assert.Equal(t, Alignment{GetFirst: 0, FribFirst: 1, Outcome: OutcomeMatched}, res.Alignment)
	assert.Len(t, res.Plan.Pairs, 30)
	assert.Equal(t, Pair{Get: 29, Frib: 30}, res.Plan.Pairs[29])
}

func TestSynchronize_SourceError(t *testing.T) {
	src := &sliceSource{
		get:     Series{1, 2, 3},
		frib:    Series{1, 2, 3},
		missing: map[Channel]int{FRIB: 2},
	}

	_, err := Synchronize(src, DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSynchronize_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Depth = 1

	_, err := Synchronize(&sliceSource{}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Params) {}},
		{name: "negative tolerance", mutate: func(p *Params) { p.AlignTolerance = -1 }, wantErr: "align tolerance"},
		{name: "zero match threshold", mutate: func(p *Params) { p.MatchThreshold = 0 }, wantErr: "match threshold"},
		{name: "negative anomaly", mutate: func(p *Params) { p.AnomalyThreshold = -3 }, wantErr: "anomaly threshold"},
		{name: "skip below anomaly", mutate: func(p *Params) { p.SkipThreshold = 5 }, wantErr: "skip threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlanDigest(t *testing.T) {
	a := Plan{Pairs: []Pair{{0, 0}, {1, 2}}}
	b := Plan{Pairs: []Pair{{0, 0}, {1, 2}}, Skips: 1, SkipPoints: []int{1}}
	c := Plan{Pairs: []Pair{{0, 0}, {1, 1}}}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Equal(t, 2, a.Len())
}
