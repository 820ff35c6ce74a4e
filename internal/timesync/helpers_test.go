package timesync

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// irregularSeries returns n timestamps with intervals in [2000, 7000).
func irregularSeries(n int, seed int64) Series {
	r := rand.New(rand.NewSource(seed))
	s := make(Series, n)
	ts := uint64(1_000_000)
	for i := range s {
		s[i] = ts
		ts += uint64(2000 + r.Intn(5000))
	}
	return s
}

// insertAt returns a copy of s with v inserted before index k.
func insertAt(s Series, k int, v uint64) Series {
	out := make(Series, 0, len(s)+1)
	out = append(out, s[:k]...)
	out = append(out, v)
	return append(out, s[k:]...)
}

// requireMonotonic checks the plan ordering invariants.
func requireMonotonic(t *testing.T, plan Plan) {
	t.Helper()
	for i := 1; i < len(plan.Pairs); i++ {
		prev, cur := plan.Pairs[i-1], plan.Pairs[i]
		require.Equal(t, prev.Get+1, cur.Get, "GET must advance by exactly one at step %d", i)
		require.GreaterOrEqual(t, cur.Frib-prev.Frib, 1, "FRIB must advance at step %d", i)
	}
}
