// Package sim provides the round-based wireless sensor network simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - sensor.go: Sensor lifecycle (ACTIVE/ASLEEP/DEAD) and the two-action learning automaton
//   - comm.go: hop-by-hop message forwarding with loss, delay and bounded queues
//   - engine.go: the round scheduler, phase ordering, and termination conditions
//
// # Architecture
//
// The sim package holds the engine and its entities; orthogonal machinery
// lives in sub-packages:
//   - sim/optimizer/: genetic algorithm evolving sensor deployments, using the
//     engine as its fitness oracle
//   - sim/scenario/: INI scenario configuration loading and validation
//
// # Determinism
//
// All randomness flows through PartitionedRNG (rng.go): each subsystem
// (decision sampling, faults, packet loss) draws from its own deterministic
// stream derived from the run's SimulationKey. Two runs with the same key and
// configuration produce bit-identical per-round results. The optimizer derives
// an independent key per fitness evaluation (EvaluationKey), so parallel
// evaluations never contend for a stream.
package sim
