package timesync

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Pair matches a GET ordinal with a FRIB ordinal.
type Pair struct {
	Get  int `json:"get"`
	Frib int `json:"frib"`
}

// Anomaly records a matched pair whose jitter exceeded the anomaly
// threshold without triggering a skip.
type Anomaly struct {
	Get    int   `json:"get"`
	Frib   int   `json:"frib"`
	Jitter int64 `json:"jitter"`
}

// Plan is the ordered list of matched pairs for one run.
type Plan struct {
	Pairs []Pair `json:"pairs"`

	// Skips is the number of FRIB positions consumed without advancing GET.
	Skips int `json:"skips"`

	// SkipPoints lists the GET ordinals at which each skip was applied.
	SkipPoints []int `json:"skip_points,omitempty"`

	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Len returns the number of pairs.
func (p *Plan) Len() int {
	return len(p.Pairs)
}

// Digest returns an xxhash of the pair sequence. Two plans with equal pairs
// have equal digests regardless of their diagnostics.
func (p *Plan) Digest() uint64 {
	h := xxhash.New()
	var buf [16]byte
	for _, pair := range p.Pairs {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(pair.Get))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(pair.Frib))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
