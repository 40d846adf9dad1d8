package sim

// CoverageMap maps POI id -> number of active, alive sensors whose sensing
// range includes the POI this round. Recomputed from scratch every round;
// there is deliberately no incremental update path.
type CoverageMap map[int]int

// ComputeCoverage counts, for every POI, the active alive sensors that can
// sense it. Pure function of the inputs: no sensor or POI state is touched.
func ComputeCoverage(pois []*POI, sensors []*Sensor) CoverageMap {
	cov := make(CoverageMap, len(pois))
	for _, p := range pois {
		n := 0
		for _, s := range sensors {
			if s.State == StateActive && s.CanSense(p.Pos) {
				n++
			}
		}
		cov[p.ID] = n
	}
	return cov
}

// KCovered returns how many POIs meet the k-coverage target.
func (c CoverageMap) KCovered(pois []*POI, k int) int {
	n := 0
	for _, p := range pois {
		if c[p.ID] >= k {
			n++
		}
	}
	return n
}

// Ratio returns the fraction of POIs meeting the k-coverage target.
// An empty POI set counts as fully covered.
func (c CoverageMap) Ratio(pois []*POI, k int) float64 {
	if len(pois) == 0 {
		return 1.0
	}
	return float64(c.KCovered(pois, k)) / float64(len(pois))
}

// WeightedRatio weights each POI's k-coverage by its critical level, so losing
// a critical target hurts the score more than losing a routine one.
func (c CoverageMap) WeightedRatio(pois []*POI, k int) float64 {
	if len(pois) == 0 {
		return 1.0
	}
	var covered, total float64
	for _, p := range pois {
		w := float64(p.CriticalLevel)
		if w < 1 {
			w = 1
		}
		total += w
		if c[p.ID] >= k {
			covered += w
		}
	}
	return covered / total
}
