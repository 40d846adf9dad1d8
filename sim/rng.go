package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical per-round results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemDecision is the RNG subsystem for learning-automaton action sampling.
	SubsystemDecision = "decision"

	// SubsystemFault is the RNG subsystem for per-round sensor failure draws.
	SubsystemFault = "fault"

	// SubsystemComm is the RNG subsystem for packet loss draws.
	SubsystemComm = "comm"

	// SubsystemDeployment is the RNG subsystem for the genetic algorithm's own
	// draws (selection, crossover, mutation). Fitness evaluations do NOT share
	// this stream; they derive their own keys via EvaluationKey.
	SubsystemDeployment = "deployment"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Isolating subsystems keeps the engine's result stream stable when one
// consumer starts drawing more or fewer values (e.g. more sensors sampling
// actions must not perturb the fault draws of the same round).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// EvaluationKey derives an independent SimulationKey for one fitness
// evaluation of the deployment optimizer. Each (generation, individual) pair
// maps to its own key, so concurrent evaluations never share a stream and
// results are independent of evaluation order.
func EvaluationKey(master SimulationKey, generation, index int) SimulationKey {
	return SimulationKey(int64(master) ^ fnv1a64(fmt.Sprintf("eval_%d_%d", generation, index)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
