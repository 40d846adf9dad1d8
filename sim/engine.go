// sim/engine.go
package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// EngineState is the lifecycle state of a simulation run.
type EngineState string

const (
	StateRunning    EngineState = "RUNNING"
	StateTerminated EngineState = "TERMINATED"
)

// RoundStats is the committed, read-only outcome of one round. The slice of
// RoundStats is the result stream consumed by the deployment optimizer and by
// external logging/visualization collaborators.
type RoundStats struct {
	Round            int
	AliveSensors     int
	ActiveSensors    int
	Coverage         CoverageMap // per-POI active coverage counts
	CoverageRatio    float64
	WeightedCoverage float64
	NewlyDead        []int // sensors killed by the fault injector this round
	// Cumulative message accounting since round 1.
	Generated int
	Delivered int
	Dropped   map[DropReason]int
}

// droppedTotal sums drops across all reasons.
func (rs RoundStats) droppedTotal() int {
	n := 0
	for _, v := range rs.Dropped {
		n += v
	}
	return n
}

// Engine is the round-synchronous state machine driving one simulation run.
//
// The engine is single-threaded by design: within a round every sensor
// decides against the previous round's committed snapshot, and no phase may
// observe a partially-updated next-round state. All randomness flows through
// the engine's own PartitionedRNG, never ambient global state, so multiple
// engines run independently and in parallel.
type Engine struct {
	Key     SimulationKey
	Config  EngineConfig
	Sensors []*Sensor // non-sink nodes, ascending id
	Sink    *Sensor
	POIs    []*POI

	State   EngineState
	Round   int
	Results []RoundStats
	Metrics *Metrics

	// OnRound, when set, observes each committed RoundStats. Used by the
	// prometheus collector and available to visualization subscribers.
	OnRound func(RoundStats)

	rng    *PartitionedRNG
	router *Router
	reward RewardStrategy

	delivered int
	generated int
	dropped   map[DropReason]int
}

// NewEngine assembles an engine from a validated configuration, a deployed
// sensor set (sink excluded) and the POI set. The sensor slice is kept in
// ascending id order to fix phase iteration order.
func NewEngine(key SimulationKey, cfg EngineConfig, sensors []*Sensor, sink *Sensor, pois []*POI) (*Engine, error) {
	reward, err := NewRewardStrategy(cfg.Network.RewardMethod)
	if err != nil {
		return nil, err
	}
	if sink == nil || !sink.IsSink {
		return nil, fmt.Errorf("engine requires a sink node")
	}

	ordered := make([]*Sensor, len(sensors))
	copy(ordered, sensors)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	rng := NewPartitionedRNG(key)
	return &Engine{
		Key:     key,
		Config:  cfg,
		Sensors: ordered,
		Sink:    sink,
		POIs:    pois,
		State:   StateRunning,
		Metrics: NewMetrics(),
		rng:     rng,
		router:  NewRouter(cfg.Comm.PacketLossProbability, cfg.Comm.DelayPerHop, rng.ForSubsystem(SubsystemComm)),
		reward:  reward,
		dropped: make(map[DropReason]int),
	}, nil
}

// everyone participating in routing: sensors plus the sink.
func (e *Engine) topology() []*Sensor {
	return append(append(make([]*Sensor, 0, len(e.Sensors)+1), e.Sensors...), e.Sink)
}

// Step executes exactly one round in the fixed phase order:
//  1. every alive sensor samples an action from its automaton
//  2. activity energy costs are applied and deaths resolved
//  3. the fault injector runs
//  4. coverage is computed over the resulting active set
//  5. POI broadcasts fire on schedule and queued messages advance one hop
//  6. rewards are assessed and automaton probabilities updated
//  7. the round counter is committed
func (e *Engine) Step() RoundStats {
	if e.State == StateTerminated {
		panic("engine: Step after termination")
	}
	round := e.Round + 1
	decisionRNG := e.rng.ForSubsystem(SubsystemDecision)

	// Phase 1: decisions against the previous round's committed state.
	for _, s := range e.Sensors {
		if !s.Alive() {
			continue
		}
		if s.DecideAction(decisionRNG) == ActionActive {
			s.State = StateActive
		} else {
			s.State = StateAsleep
		}
	}

	// Phase 2: activity energy costs; ConsumeEnergy resolves DEAD.
	for _, s := range e.Sensors {
		if !s.Alive() {
			continue
		}
		s.ConsumeEnergy(ActivityCost(s.LastAction, e.Config.Network.WorkingTimeSlice))
	}

	// Phase 3: stochastic faults.
	newlyDead := ApplyFaults(e.Sensors, e.Config.Faults.FailureRatePerRound, e.rng.ForSubsystem(SubsystemFault))

	// Phase 4: coverage over the post-fault active set.
	coverage := ComputeCoverage(e.POIs, e.Sensors)
	k := e.Config.Network.TargetKCoverage
	ratio := coverage.Ratio(e.POIs, k)
	weighted := coverage.WeightedRatio(e.POIs, k)

	// Phase 5: offered load and one forwarding pass.
	if e.Config.Comm.BroadcastInterval > 0 && round%e.Config.Comm.BroadcastInterval == 0 {
		e.generateBroadcasts(round)
	}
	traffic := e.router.ForwardRound(e.topology(), e.Sink, round)
	e.delivered += traffic.Delivered
	for reason, n := range traffic.Dropped {
		e.dropped[reason] += n
	}

	// Phase 6: local reward assessment and automaton updates.
	snap := RoundSnapshot{
		Round:            round,
		CoverageRatio:    ratio,
		WeightedCoverage: weighted,
		TimeSlice:        e.Config.Network.WorkingTimeSlice,
	}
	for _, s := range e.Sensors {
		if !s.Alive() {
			continue
		}
		if e.reward.Assess(snap, s) {
			s.LA.Reward(s.LastAction)
		} else {
			s.LA.Penalize(s.LastAction)
		}
	}

	// Phase 7: commit.
	e.Round = round
	stats := RoundStats{
		Round:            round,
		AliveSensors:     e.aliveCount(),
		ActiveSensors:    e.activeCount(),
		Coverage:         coverage,
		CoverageRatio:    ratio,
		WeightedCoverage: weighted,
		NewlyDead:        newlyDead,
		Generated:        e.generated,
		Delivered:        e.delivered,
		Dropped:          copyDrops(e.dropped),
	}
	e.Results = append(e.Results, stats)
	e.Metrics.Observe(stats, traffic)
	if e.OnRound != nil {
		e.OnRound(stats)
	}
	logrus.Infof("[round %04d] alive=%d active=%d coverage=%.2f delivered=%d dropped=%d",
		round, stats.AliveSensors, stats.ActiveSensors, ratio, e.delivered, stats.droppedTotal())

	if e.terminated(stats) {
		e.State = StateTerminated
		logrus.Infof("[round %04d] simulation terminated (%s)", round, e.Config.Network.EndCondition)
	}
	return stats
}

// Run advances rounds until the configured end condition fires or ctx is
// cancelled. Cancellation is honored only at round boundaries: a started
// round always commits.
func (e *Engine) Run(ctx context.Context) error {
	for e.State == StateRunning {
		select {
		case <-ctx.Done():
			e.State = StateTerminated
			return ctx.Err()
		default:
		}
		e.Step()
	}
	return nil
}

// generateBroadcasts fires one report per POI, originating at the closest
// active sensor whose sensing range includes the POI. Unobserved POIs emit
// nothing. An origin whose queue is full drops the new report (drop-tail).
func (e *Engine) generateBroadcasts(round int) {
	maxHops := e.Config.Comm.MaxHops
	if maxHops <= 0 {
		maxHops = len(e.Sensors) + 1
	}
	for _, p := range e.POIs {
		var origin *Sensor
		var originDist float64
		for _, s := range e.Sensors {
			if s.State != StateActive || !s.CanSense(p.Pos) {
				continue
			}
			d := Distance(s.Pos, p.Pos)
			if origin == nil || d < originDist || (d == originDist && s.ID < origin.ID) {
				origin, originDist = s, d
			}
		}
		if origin == nil {
			continue
		}
		e.generated++
		msg := &Message{
			OriginID:  origin.ID,
			POIID:     p.ID,
			Tag:       "poi_report",
			HopBudget: maxHops,
			CreatedAt: round,
		}
		if !origin.Outbound.Push(msg) {
			e.dropped[DropQueueFull]++
		}
	}
}

func (e *Engine) aliveCount() int {
	n := 0
	for _, s := range e.Sensors {
		if s.Alive() {
			n++
		}
	}
	return n
}

func (e *Engine) activeCount() int {
	n := 0
	for _, s := range e.Sensors {
		if s.State == StateActive {
			n++
		}
	}
	return n
}

// terminated evaluates the configured end condition against the committed
// round, plus the hard MaxRounds horizon.
func (e *Engine) terminated(stats RoundStats) bool {
	if e.Config.Network.MaxRounds > 0 && e.Round >= e.Config.Network.MaxRounds {
		return true
	}
	switch e.Config.Network.EndCondition {
	case EndAllSensorsDead:
		return stats.AliveSensors == 0
	case EndCoverageLost:
		return len(e.POIs) > 0 && stats.CoverageRatio == 0
	default: // EndMaxRounds: horizon only
		return false
	}
}

func copyDrops(src map[DropReason]int) map[DropReason]int {
	dst := make(map[DropReason]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
