package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLearningAutomaton_ProbabilitiesSumToOne_AfterEveryUpdate(t *testing.T) {
	// GIVEN an automaton and a mixed reward/penalty history
	la := NewLearningAutomaton(0.1)
	rng := rand.New(rand.NewSource(1))

	// WHEN many updates are applied
	for i := 0; i < 1000; i++ {
		action := la.ChooseAction(rng)
		if rng.Float64() < 0.5 {
			la.Reward(action)
		} else {
			la.Penalize(action)
		}
		// THEN the vector always sums to 1 within floating-point tolerance
		sum := la.Probs[0] + la.Probs[1]
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.GreaterOrEqual(t, la.Probs[0], 0.0)
		assert.LessOrEqual(t, la.Probs[0], 1.0)
	}
}

func TestLearningAutomaton_Reward_ShiftsMassTowardAction(t *testing.T) {
	la := NewLearningAutomaton(0.1)

	before := la.Probs[ActionActive]
	la.Reward(ActionActive)

	assert.Greater(t, la.Probs[ActionActive], before)
}

func TestLearningAutomaton_Penalize_ShiftsMassAwayFromAction(t *testing.T) {
	la := NewLearningAutomaton(0.1)

	before := la.Probs[ActionActive]
	la.Penalize(ActionActive)

	assert.Less(t, la.Probs[ActionActive], before)
}

func TestLearningAutomaton_ProbabilityFloor_KeepsActionsReachable(t *testing.T) {
	// GIVEN an automaton rewarded for the same action indefinitely
	la := NewLearningAutomaton(0.5)
	for i := 0; i < 100; i++ {
		la.Reward(ActionActive)
	}

	// THEN the complementary action keeps the minimum probability
	assert.InDelta(t, minActionProb, la.Probs[ActionSleep], 1e-12)
	assert.InDelta(t, 1.0, la.Probs[0]+la.Probs[1], 1e-9)
}

func TestSensor_ConsumeEnergy_MonotonicAndTerminalDeath(t *testing.T) {
	// GIVEN a sensor with limited energy
	s := NewSensor(1, Point{X: 0, Y: 0}, 0.1, 10, 5, 0.1, 4)

	// WHEN energy is drained past zero
	s.ConsumeEnergy(0.06)
	assert.Equal(t, StateAsleep, s.State)
	s.ConsumeEnergy(0.06)

	// THEN the sensor is DEAD with energy frozen at 0
	assert.Equal(t, StateDead, s.State)
	assert.Equal(t, 0.0, s.RemainingEnergy)
	assert.False(t, s.Alive())
}

func TestSensor_ConsumeEnergy_AfterDeath_Panics(t *testing.T) {
	s := NewSensor(1, Point{}, 0.01, 10, 5, 0.1, 4)
	s.ConsumeEnergy(1.0)

	assert.Panics(t, func() { s.ConsumeEnergy(0.01) })
}

func TestSensor_Kill_IgnoresRemainingEnergy(t *testing.T) {
	s := NewSensor(1, Point{}, 100.0, 10, 5, 0.1, 4)

	s.Kill()

	assert.Equal(t, StateDead, s.State)
	assert.Equal(t, 0.0, s.RemainingEnergy)
}

func TestSink_NeverDepletes(t *testing.T) {
	sink := NewSink(0, Point{}, 10)

	sink.ConsumeEnergy(1e9)
	sink.Kill()

	assert.Equal(t, StateActive, sink.State)
	assert.True(t, math.IsInf(sink.RemainingEnergy, 1))
}

func TestSensor_DecideAction_ConsumesOneDraw(t *testing.T) {
	// GIVEN two identically seeded streams
	s := NewSensor(1, Point{}, 1.0, 10, 5, 0.1, 4)
	rngA := rand.New(rand.NewSource(3))
	rngB := rand.New(rand.NewSource(3))

	// WHEN an action is sampled from one
	s.DecideAction(rngA)

	// THEN exactly one draw was consumed
	rngB.Float64()
	assert.Equal(t, rngB.Float64(), rngA.Float64())
}

func TestSensor_CanSense_ZeroRange_NeverCovers(t *testing.T) {
	// GIVEN a sensor with sensing_range = 0 sitting exactly on a POI
	s := NewSensor(1, Point{X: 5, Y: 5}, 1.0, 10, 0, 0.1, 4)
	s.State = StateActive

	// THEN it senses the POI position itself but nothing at any distance
	assert.True(t, s.CanSense(Point{X: 5, Y: 5}))
	assert.False(t, s.CanSense(Point{X: 5.0001, Y: 5}))
}

func TestSensor_CanReach_RequiresMutualRange(t *testing.T) {
	a := NewSensor(1, Point{X: 0, Y: 0}, 1.0, 10, 5, 0.1, 4)
	b := NewSensor(2, Point{X: 8, Y: 0}, 1.0, 5, 5, 0.1, 4)

	// a reaches 10 units, b only 5: the 8-unit link is not mutual
	assert.False(t, a.CanReach(b))
	b.CommRange = 10
	assert.True(t, a.CanReach(b))
}
