package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// SensorState is the operational state of a sensor node.
type SensorState string

const (
	StateActive SensorState = "ACTIVE"
	StateAsleep SensorState = "ASLEEP"
	StateDead   SensorState = "DEAD"
)

// Action is a learning-automaton action index.
type Action int

const (
	// ActionActive keeps the sensor monitoring this round.
	ActionActive Action = 0
	// ActionSleep puts the sensor into low-power sleep this round.
	ActionSleep Action = 1

	numActions = 2
)

// minActionProb is the floor applied to each action probability so no action
// ever becomes unreachable. Keeps the automaton able to recover from a long
// streak of penalties.
const minActionProb = 0.001

// probSumTolerance is the floating-point tolerance for the probability-sum
// invariant. A larger drift indicates a broken update rule and is fatal.
const probSumTolerance = 1e-9

// LearningAutomaton is a two-action linear reward-penalty automaton.
// Each sensor owns exactly one; probabilities are never shared across sensors.
type LearningAutomaton struct {
	// Probs holds P(ActionActive) and P(ActionSleep). Always sums to 1.
	Probs [numActions]float64
	// ParamA is the learning rate 'a' governing convergence speed vs stability.
	ParamA float64
}

// NewLearningAutomaton creates an automaton with uniform action probabilities.
func NewLearningAutomaton(paramA float64) *LearningAutomaton {
	return &LearningAutomaton{
		Probs:  [numActions]float64{0.5, 0.5},
		ParamA: paramA,
	}
}

// ChooseAction samples an action from the current probability vector,
// consuming exactly one draw from rng.
func (la *LearningAutomaton) ChooseAction(rng *rand.Rand) Action {
	if rng.Float64() < la.Probs[ActionActive] {
		return ActionActive
	}
	return ActionSleep
}

// Reward shifts probability mass toward the action just taken:
//
//	p_i(t+1) = p_i(t) + a*(1 - p_i(t))   for the rewarded action
//	p_j(t+1) = p_j(t) - a*p_j(t)         for the complementary action
func (la *LearningAutomaton) Reward(taken Action) {
	other := 1 - taken
	la.Probs[taken] += la.ParamA * (1.0 - la.Probs[taken])
	la.Probs[other] -= la.ParamA * la.Probs[other]
	la.normalize()
}

// Penalize shifts probability mass away from the action just taken,
// symmetrically to Reward.
func (la *LearningAutomaton) Penalize(taken Action) {
	la.Reward(1 - taken)
}

// normalize clamps each probability into [minActionProb, 1-minActionProb]
// and rescales the vector to sum to 1. Panics if the vector is broken beyond
// repair, since that signals a defective update rule rather than a simulated
// condition.
func (la *LearningAutomaton) normalize() {
	p0 := math.Max(0, math.Min(1, la.Probs[0]))
	p1 := math.Max(0, math.Min(1, la.Probs[1]))
	total := p0 + p1
	if total <= 0 || math.IsNaN(total) {
		panic(fmt.Sprintf("learning automaton: degenerate probability vector [%v %v]", la.Probs[0], la.Probs[1]))
	}
	p0, p1 = p0/total, p1/total

	if p0 < minActionProb {
		p0, p1 = minActionProb, 1.0-minActionProb
	} else if p1 < minActionProb {
		p0, p1 = 1.0-minActionProb, minActionProb
	}
	la.Probs[0], la.Probs[1] = p0, p1

	if math.Abs(la.Probs[0]+la.Probs[1]-1.0) > probSumTolerance {
		panic(fmt.Sprintf("learning automaton: probabilities sum to %v, want 1", la.Probs[0]+la.Probs[1]))
	}
}

// Sensor is a single node in the wireless sensor network.
// The sink is modeled as a Sensor with IsSink set: always active, never
// depletes energy, and carries no learning automaton.
type Sensor struct {
	ID              int
	Pos             Point
	InitialEnergy   float64
	RemainingEnergy float64
	CommRange       float64
	SensingRange    float64
	State           SensorState
	IsSink          bool

	// LA is the sensor's decision policy. Nil for the sink.
	LA *LearningAutomaton

	// LastAction is the action sampled this round, recorded so the reward
	// engine can apply the automaton update after coverage is known.
	LastAction Action

	// Outbound holds messages awaiting relay toward the sink.
	Outbound *Queue
}

// NewSensor constructs a sensor in the ASLEEP state with a fresh automaton.
func NewSensor(id int, pos Point, initialEnergy, commRange, sensingRange, laParamA float64, queueCap int) *Sensor {
	return &Sensor{
		ID:              id,
		Pos:             pos,
		InitialEnergy:   initialEnergy,
		RemainingEnergy: initialEnergy,
		CommRange:       commRange,
		SensingRange:    sensingRange,
		State:           StateAsleep,
		LA:              NewLearningAutomaton(laParamA),
		Outbound:        NewQueue(queueCap),
	}
}

// NewSink constructs the sink node. The sink is permanently active, has
// unbounded energy, senses nothing, and never queues (delivery is terminal).
func NewSink(id int, pos Point, commRange float64) *Sensor {
	return &Sensor{
		ID:              id,
		Pos:             pos,
		InitialEnergy:   math.Inf(1),
		RemainingEnergy: math.Inf(1),
		CommRange:       commRange,
		State:           StateActive,
		IsSink:          true,
	}
}

// Alive reports whether the sensor can still participate in the network.
func (s *Sensor) Alive() bool {
	return s.State != StateDead
}

// DecideAction samples the next round's action from the automaton and records
// it. Dead sensors and the sink never sample.
func (s *Sensor) DecideAction(rng *rand.Rand) Action {
	if s.IsSink || !s.Alive() {
		return ActionSleep
	}
	s.LastAction = s.LA.ChooseAction(rng)
	return s.LastAction
}

// ConsumeEnergy subtracts amount from the sensor's remaining energy and
// resolves the DEAD transition. The transition is terminal: a dead sensor's
// energy is frozen at 0 and any further charge is a programming defect.
func (s *Sensor) ConsumeEnergy(amount float64) {
	if s.IsSink {
		return
	}
	if s.State == StateDead {
		if amount > 0 {
			panic(fmt.Sprintf("sensor %d: energy charged after DEAD transition", s.ID))
		}
		return
	}
	s.RemainingEnergy -= amount
	if s.RemainingEnergy <= 0 {
		s.RemainingEnergy = 0
		s.State = StateDead
	}
}

// Kill transitions the sensor to DEAD regardless of remaining energy.
// Used by the fault injector; irreversible.
func (s *Sensor) Kill() {
	if s.IsSink {
		return
	}
	s.State = StateDead
	s.RemainingEnergy = 0
}

// CanSense reports whether the sensor's sensing disk includes pos. Activity is
// not checked here; the coverage engine restricts to the active set itself.
func (s *Sensor) CanSense(pos Point) bool {
	if !s.Alive() || s.IsSink {
		return false
	}
	return Distance(s.Pos, pos) <= s.SensingRange
}

// CanReach reports whether both endpoints are within each other's comm range.
func (s *Sensor) CanReach(other *Sensor) bool {
	if s.ID == other.ID {
		return false
	}
	d := Distance(s.Pos, other.Pos)
	return d <= s.CommRange && d <= other.CommRange
}

func (s *Sensor) String() string {
	if s.IsSink {
		return fmt.Sprintf("Sensor(id=%d, SINK)", s.ID)
	}
	return fmt.Sprintf("Sensor(id=%d, E=%.3f, %s, P(A)=%.2f)",
		s.ID, s.RemainingEnergy, s.State, s.LA.Probs[ActionActive])
}
