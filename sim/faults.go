package sim

import (
	"math/rand"
	"sort"
)

// ApplyFaults draws one Bernoulli trial per still-alive sensor and kills the
// sensors whose draw succeeds, regardless of remaining energy. The sink is
// immune. Returns the ids of newly dead sensors in ascending order.
//
// Called once per round, after energy accounting; the deaths take effect
// before the next round's coverage computation.
func ApplyFaults(sensors []*Sensor, failureRate float64, rng *rand.Rand) []int {
	if failureRate <= 0 {
		return nil
	}
	// Draw in ascending id order so the consumed stream is deterministic.
	ordered := make([]*Sensor, 0, len(sensors))
	for _, s := range sensors {
		if !s.IsSink && s.Alive() {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var dead []int
	for _, s := range ordered {
		if rng.Float64() < failureRate {
			s.Kill()
			dead = append(dead, s.ID)
		}
	}
	return dead
}
