package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// activeSensor builds a sensor already switched into the ACTIVE state.
func activeSensor(id int, pos Point, sensingRange float64) *Sensor {
	s := NewSensor(id, pos, 1.0, 10, sensingRange, 0.1, 4)
	s.State = StateActive
	return s
}

func TestComputeCoverage_CountsOnlyActiveAliveSensors(t *testing.T) {
	// GIVEN a POI inside the sensing range of three sensors in different states
	poi := &POI{ID: 1, Pos: Point{X: 0, Y: 0}, CriticalLevel: 1}
	active := activeSensor(1, Point{X: 1, Y: 0}, 5)
	asleep := NewSensor(2, Point{X: 0, Y: 1}, 1.0, 10, 5, 0.1, 4)
	dead := activeSensor(3, Point{X: 1, Y: 1}, 5)
	dead.Kill()

	// WHEN coverage is computed
	cov := ComputeCoverage([]*POI{poi}, []*Sensor{active, asleep, dead})

	// THEN only the active alive sensor counts
	assert.Equal(t, 1, cov[poi.ID])
}

func TestComputeCoverage_IsPureRecomputation(t *testing.T) {
	// GIVEN a covered POI
	poi := &POI{ID: 1, Pos: Point{X: 0, Y: 0}, CriticalLevel: 1}
	s := activeSensor(1, Point{X: 1, Y: 0}, 5)
	first := ComputeCoverage([]*POI{poi}, []*Sensor{s})
	assert.Equal(t, 1, first[poi.ID])

	// WHEN the covering sensor goes to sleep and coverage is recomputed
	s.State = StateAsleep
	second := ComputeCoverage([]*POI{poi}, []*Sensor{s})

	// THEN the new map reflects the change and the old map is untouched
	assert.Equal(t, 0, second[poi.ID])
	assert.Equal(t, 1, first[poi.ID])
}

func TestComputeCoverage_ZeroSensingRange_CoversNothingAtDistance(t *testing.T) {
	poi := &POI{ID: 1, Pos: Point{X: 0.001, Y: 0}, CriticalLevel: 1}
	s := activeSensor(1, Point{X: 0, Y: 0}, 0)

	cov := ComputeCoverage([]*POI{poi}, []*Sensor{s})

	assert.Equal(t, 0, cov[poi.ID])
}

func TestCoverageMap_KCoveredAndRatio(t *testing.T) {
	pois := []*POI{
		{ID: 1, Pos: Point{X: 0, Y: 0}, CriticalLevel: 1},
		{ID: 2, Pos: Point{X: 10, Y: 0}, CriticalLevel: 1},
	}
	sensors := []*Sensor{
		activeSensor(1, Point{X: 0, Y: 1}, 2),
		activeSensor(2, Point{X: 1, Y: 0}, 2),
		activeSensor(3, Point{X: 10, Y: 1}, 2),
	}

	cov := ComputeCoverage(pois, sensors)

	// POI 1 is 2-covered, POI 2 only 1-covered.
	assert.Equal(t, 2, cov.KCovered(pois, 1))
	assert.Equal(t, 1, cov.KCovered(pois, 2))
	assert.Equal(t, 0.5, cov.Ratio(pois, 2))
}

func TestCoverageMap_Ratio_EmptyPOISetIsFullyCovered(t *testing.T) {
	cov := ComputeCoverage(nil, nil)
	assert.Equal(t, 1.0, cov.Ratio(nil, 1))
	assert.Equal(t, 1.0, cov.WeightedRatio(nil, 1))
}

func TestCoverageMap_WeightedRatio_CriticalPOIDominates(t *testing.T) {
	// GIVEN a critical POI (weight 4) covered and a routine one uncovered
	pois := []*POI{
		{ID: 1, Pos: Point{X: 0, Y: 0}, CriticalLevel: 4},
		{ID: 2, Pos: Point{X: 100, Y: 0}, CriticalLevel: 1},
	}
	sensors := []*Sensor{activeSensor(1, Point{X: 0, Y: 1}, 2)}

	cov := ComputeCoverage(pois, sensors)

	// THEN the weighted ratio exceeds the unweighted one
	assert.Equal(t, 0.5, cov.Ratio(pois, 1))
	assert.InDelta(t, 0.8, cov.WeightedRatio(pois, 1), 1e-12)
}
