package sim

import "fmt"

// RoundSnapshot is the committed, public outcome of a round handed to the
// reward engine. It carries no per-sensor private state: automaton updates
// stay local and decentralized.
type RoundSnapshot struct {
	Round            int
	CoverageRatio    float64 // fraction of POIs meeting the k-coverage target
	WeightedCoverage float64 // critical-level weighted variant
	TimeSlice        float64 // cover-set working time slice used this round
}

// RewardStrategy decides whether a sensor's last action earned a reward.
// Assess must be a pure function of the snapshot and the sensor's own
// action/energy outcome — never of another sensor's state.
type RewardStrategy interface {
	Name() string
	Assess(snap RoundSnapshot, s *Sensor) bool
}

// NewRewardStrategy resolves a reward_method tag to its strategy.
// The tag set mirrors the configuration surface; unknown tags are a
// configuration error surfaced before any round runs.
func NewRewardStrategy(tag string) (RewardStrategy, error) {
	switch tag {
	case "", "coverage", "reward_method": // reward_method: placeholder tag maps to the default
		return &CoverageReward{EnergyWeight: 1.0, Threshold: 0.5}, nil
	case "cardinality":
		return &CardinalityReward{}, nil
	case "energy":
		return &EnergyReward{ReserveFraction: 0.5}, nil
	default:
		return nil, fmt.Errorf("unknown reward_method %q", tag)
	}
}

// CoverageReward scores a round as achieved coverage ratio minus an
// energy-expenditure penalty for the sensor's own action, and rewards when
// the score clears Threshold. This is the default strategy.
type CoverageReward struct {
	// EnergyWeight scales the penalty for the energy the action cost,
	// normalized by the sensor's initial energy.
	EnergyWeight float64
	// Threshold is the minimum score that still counts as a reward.
	Threshold float64
}

func (r *CoverageReward) Name() string { return "coverage" }

func (r *CoverageReward) Assess(snap RoundSnapshot, s *Sensor) bool {
	score := snap.CoverageRatio
	if s.InitialEnergy > 0 {
		score -= r.EnergyWeight * ActivityCost(s.LastAction, snap.TimeSlice) / s.InitialEnergy
	}
	return score >= r.Threshold
}

// CardinalityReward rewards the taken action only when the round achieved
// full k-coverage: active sensors earned their keep, sleeping sensors proved
// redundant at no cost.
type CardinalityReward struct{}

func (r *CardinalityReward) Name() string { return "cardinality" }

func (r *CardinalityReward) Assess(snap RoundSnapshot, s *Sensor) bool {
	return snap.CoverageRatio >= 1.0
}

// EnergyReward favors duty rotation: an active sensor is rewarded only while
// it still holds at least ReserveFraction of its initial energy, a sleeping
// sensor is rewarded for conserving once below the reserve (or whenever
// coverage held without it).
type EnergyReward struct {
	ReserveFraction float64
}

func (r *EnergyReward) Name() string { return "energy" }

func (r *EnergyReward) Assess(snap RoundSnapshot, s *Sensor) bool {
	reserve := 0.0
	if s.InitialEnergy > 0 {
		reserve = s.RemainingEnergy / s.InitialEnergy
	}
	if s.LastAction == ActionActive {
		return snap.CoverageRatio >= 1.0 && reserve >= r.ReserveFraction
	}
	return snap.CoverageRatio >= 1.0 || reserve < r.ReserveFraction
}
