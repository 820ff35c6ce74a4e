package timesync

// BuildPlan walks both delta sequences forward from a and returns the
// matched pairs.
//
// At each step the GET index advances by one. When the GET interval exceeds
// the FRIB interval by more than p.SkipThreshold the FRIB side is assumed to
// hold an event GET never saw, and the FRIB offset grows by one for the rest
// of the walk. Decisions are never revisited. The walk ends as soon as
// either index leaves its sequence.
func BuildPlan(get, frib DeltaSeries, a Alignment, p Params) Plan {
	plan := Plan{Pairs: []Pair{}}
	if a.GetFirst < 0 || a.FribFirst < 0 || a.GetFirst >= len(get) || a.FribFirst >= len(frib) {
		return plan
	}

	plan.Pairs = append(plan.Pairs, Pair{Get: a.GetFirst, Frib: a.FribFirst})
	offset := 0
	for i := 1; i+a.GetFirst < len(get); i++ {
		g := i + a.GetFirst
		f := i + a.FribFirst + offset
		if f >= len(frib) {
			break
		}

		jitter := get[g] - frib[f]
		switch {
		case jitter > p.SkipThreshold:
			offset++
			f++
			plan.SkipPoints = append(plan.SkipPoints, g)
		case jitter > p.AnomalyThreshold:
			plan.Anomalies = append(plan.Anomalies, Anomaly{Get: g, Frib: f, Jitter: jitter})
		}
		if f >= len(frib) {
			break
		}
		plan.Pairs = append(plan.Pairs, Pair{Get: g, Frib: f})
	}
	plan.Skips = offset
	return plan
}
