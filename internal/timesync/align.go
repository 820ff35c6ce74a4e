package timesync

// Outcome describes how an Alignment was decided.
type Outcome int

const (
	// OutcomeAligned means the first events of both channels agree.
	OutcomeAligned Outcome = iota
	// OutcomeMatched means the pattern search found a later starting pair.
	OutcomeMatched
	// OutcomeNotFound means the pattern search was exhausted. The alignment
	// falls back to (0, 0).
	OutcomeNotFound
)

// String returns a lower-case name for log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeAligned:
		return "aligned"
	case OutcomeMatched:
		return "matched"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Alignment is the first index pair at which both channels correspond.
type Alignment struct {
	GetFirst  int     `json:"get_first"`
	FribFirst int     `json:"frib_first"`
	Outcome   Outcome `json:"outcome"`
}

// Locate determines where the GET and FRIB delta sequences start to agree.
//
// If the first real intervals differ by at most p.AlignTolerance the
// channels are aligned at (0, 0). Otherwise a bounded search over
// (start, offset) pairs compares windows of p.Depth-1 deltas under two
// hypotheses: GET ahead of FRIB by offset events, then FRIB ahead of GET.
// The first window whose accumulated difference is below p.MatchThreshold
// wins. An exhausted search returns (0, 0) with OutcomeNotFound.
func Locate(get, frib DeltaSeries, p Params) Alignment {
	if len(get) < 2 || len(frib) < 2 {
		return Alignment{Outcome: OutcomeAligned}
	}
	if absInt64(get[1]-frib[1]) <= p.AlignTolerance {
		return Alignment{Outcome: OutcomeAligned}
	}

	bound := min(len(get), len(frib)) / 2
	for start := 0; start < bound; start++ {
		for offset := 0; offset < bound; offset++ {
			if a, ok := matchAt(get, frib, start, offset, p); ok {
				return a
			}
		}
	}
	return Alignment{Outcome: OutcomeNotFound}
}

// matchAt tests both hypotheses for one (start, offset) candidate.
func matchAt(get, frib DeltaSeries, start, offset int, p Params) (Alignment, bool) {
	if diff, ok := windowDiff(get, frib, start, offset, p.Depth); ok && diff < p.MatchThreshold {
		return Alignment{GetFirst: start + offset, FribFirst: start, Outcome: OutcomeMatched}, true
	}
	if diff, ok := windowDiff(frib, get, start, offset, p.Depth); ok && diff < p.MatchThreshold {
		return Alignment{GetFirst: start, FribFirst: start + offset, Outcome: OutcomeMatched}, true
	}
	return Alignment{}, false
}

// windowDiff sums |lead[start+j+offset] - lag[start+j]| for j in [1, depth).
// It reports false when the window does not fit in either sequence.
func windowDiff(lead, lag DeltaSeries, start, offset, depth int) (int64, bool) {
	last := depth - 1
	if start+last+offset >= len(lead) || start+last >= len(lag) {
		return 0, false
	}
	var sum int64
	for j := 1; j < depth; j++ {
		sum += absInt64(lead[start+j+offset] - lag[start+j])
	}
	return sum, true
}
