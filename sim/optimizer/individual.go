package optimizer

import (
	"math/rand"

	"github.com/wsn-sim/wsn-sim/sim"
)

// Individual is one candidate deployment: an ordered sequence of sensor
// positions, one per sensor slot. Slot order matches the scenario's sensor
// order, so slot i always maps to the same sensor (including the sink slot).
type Individual struct {
	Positions []sim.Point
}

// Clone returns a deep copy of the individual.
func (ind Individual) Clone() Individual {
	positions := make([]sim.Point, len(ind.Positions))
	copy(positions, ind.Positions)
	return Individual{Positions: positions}
}

// randomIndividual draws every position uniformly inside the area.
func randomIndividual(sensorCount int, area sim.Bounds, rng *rand.Rand) Individual {
	positions := make([]sim.Point, sensorCount)
	for i := range positions {
		positions[i] = area.RandomPoint(rng)
	}
	return Individual{Positions: positions}
}
