package testutil

// Series returns n increasing timestamps from 1,000,000 with irregular
// intervals in [2000, 7000).
func Series(n int) []uint64 {
	out := make([]uint64, n)
	ts := uint64(1_000_000)
	for i := range out {
		out[i] = ts
		ts += 2000 + uint64(i*737%5000)
	}
	return out
}

// WithExtra returns base with one timestamp inserted 500 after base[k-1],
// as if the channel recorded an event the other channel never saw. k must
// be in [1, len(base)].
func WithExtra(base []uint64, k int) []uint64 {
	out := make([]uint64, 0, len(base)+1)
	out = append(out, base[:k]...)
	out = append(out, base[k-1]+500)
	return append(out, base[k:]...)
}
