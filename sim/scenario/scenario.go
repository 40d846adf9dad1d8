// Package scenario loads and validates the sectioned key=value scenario files
// that configure a simulation run. Configuration failures are reported as
// ConfigError naming the offending field, and always before any round runs.
package scenario

import (
	"fmt"
	"math/rand"

	"gopkg.in/ini.v1"

	"github.com/wsn-sim/wsn-sim/sim"
)

// ConfigError reports an invalid or missing configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// General mirrors the [General] section.
type General struct {
	AreaWidth       float64
	AreaHeight      float64
	MaxRounds       int
	SinkID          int
	RandomSeed      int64
	LoggingInterval int // consumed by the logging collaborator only
}

// NetworkLogic mirrors the [NetworkLogic] section.
type NetworkLogic struct {
	TargetKCoverage  int
	RewardMethod     string
	WorkingTimeSlice float64
	EndCondition     string
}

// SensorDefaults mirrors the [SensorDefaults] section.
type SensorDefaults struct {
	InitialEnergy float64
	CommRange     float64
	SensingRange  float64
	LAParamA      float64
}

// SensorSpec is one sensor entry from [Sensors], with defaults layered in.
// HasPos is false when no position was configured; deployment then draws one
// uniformly inside the area.
type SensorSpec struct {
	ID            int
	X, Y          float64
	HasPos        bool
	InitialEnergy float64
	CommRange     float64
	SensingRange  float64
	LAParamA      float64
}

// POISpec is one POI entry from [POIs].
type POISpec struct {
	ID            int
	X, Y          float64
	CriticalLevel int
}

// Communication mirrors the [Communication] section.
type Communication struct {
	PacketLossProbability float64
	TransmissionDelay     float64
	MaxQueueSize          int
	BroadcastInterval     int
	MaxHops               int
}

// Faults mirrors the [Faults] section.
type Faults struct {
	SensorFailureRatePerRound float64
}

// Optimizer mirrors the [DeploymentOptimizer] section.
type Optimizer struct {
	Enabled        bool
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	TournamentSize int
	ElitismCount   int
}

// Visualization mirrors the [Visualization] section. Parsed and exposed for
// the out-of-scope rendering collaborator; the core never reads it.
type Visualization struct {
	Enabled      bool
	PlotInterval int
}

// Spec is a fully parsed scenario.
type Spec struct {
	General        General
	NetworkLogic   NetworkLogic
	SensorDefaults SensorDefaults
	Sensors        []SensorSpec
	POIs           []POISpec
	Communication  Communication
	Faults         Faults
	Optimizer      Optimizer
	Visualization  Visualization
}

// Load reads and validates a scenario file.
func Load(path string) (*Spec, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	spec, err := parse(file)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func parse(file *ini.File) (*Spec, error) {
	spec := &Spec{}

	gen := file.Section("General")
	for _, field := range []string{"area_width", "area_height", "sink_id"} {
		if !gen.HasKey(field) {
			return nil, &ConfigError{Field: "General." + field, Reason: "required field missing"}
		}
	}
	spec.General = General{
		AreaWidth:       gen.Key("area_width").MustFloat64(0),
		AreaHeight:      gen.Key("area_height").MustFloat64(0),
		MaxRounds:       gen.Key("max_rounds").MustInt(100),
		SinkID:          gen.Key("sink_id").MustInt(0),
		RandomSeed:      gen.Key("random_seed").MustInt64(42),
		LoggingInterval: gen.Key("logging_interval").MustInt(1),
	}

	nl := file.Section("NetworkLogic")
	spec.NetworkLogic = NetworkLogic{
		TargetKCoverage:  nl.Key("target_k_coverage").MustInt(1),
		RewardMethod:     nl.Key("reward_method").MustString("coverage"),
		WorkingTimeSlice: nl.Key("cover_set_working_time_slice").MustFloat64(1.0),
		EndCondition:     nl.Key("end_condition").MustString(sim.EndAllSensorsDead),
	}

	sd := file.Section("SensorDefaults")
	spec.SensorDefaults = SensorDefaults{
		InitialEnergy: sd.Key("initial_energy").MustFloat64(1.0),
		CommRange:     sd.Key("comm_range").MustFloat64(25),
		SensingRange:  sd.Key("sensing_range").MustFloat64(15),
		LAParamA:      sd.Key("la_param_a").MustFloat64(0.1),
	}

	sensors := file.Section("Sensors")
	count := sensors.Key("count").MustInt(0)
	for i := 0; i < count; i++ {
		id := sensors.Key(fmt.Sprintf("sensor_%d_id", i)).MustInt(i)
		ss := SensorSpec{
			ID:            id,
			InitialEnergy: sensors.Key(fmt.Sprintf("sensor_%d_initial_energy", id)).MustFloat64(spec.SensorDefaults.InitialEnergy),
			CommRange:     sensors.Key(fmt.Sprintf("sensor_%d_comm_range", id)).MustFloat64(spec.SensorDefaults.CommRange),
			SensingRange:  sensors.Key(fmt.Sprintf("sensor_%d_sensing_range", id)).MustFloat64(spec.SensorDefaults.SensingRange),
			LAParamA:      sensors.Key(fmt.Sprintf("sensor_%d_la_param_a", id)).MustFloat64(spec.SensorDefaults.LAParamA),
		}
		xKey, yKey := fmt.Sprintf("sensor_%d_x", id), fmt.Sprintf("sensor_%d_y", id)
		if sensors.HasKey(xKey) && sensors.HasKey(yKey) {
			ss.X = sensors.Key(xKey).MustFloat64(0)
			ss.Y = sensors.Key(yKey).MustFloat64(0)
			ss.HasPos = true
		}
		spec.Sensors = append(spec.Sensors, ss)
	}

	pois := file.Section("POIs")
	poiCount := pois.Key("count").MustInt(0)
	for i := 0; i < poiCount; i++ {
		id := pois.Key(fmt.Sprintf("poi_%d_id", i)).MustInt(i)
		xKey, yKey := fmt.Sprintf("poi_%d_x", i), fmt.Sprintf("poi_%d_y", i)
		if !pois.HasKey(xKey) || !pois.HasKey(yKey) {
			return nil, &ConfigError{Field: fmt.Sprintf("POIs.poi_%d_x/y", i), Reason: "required field missing"}
		}
		spec.POIs = append(spec.POIs, POISpec{
			ID:            id,
			X:             pois.Key(xKey).MustFloat64(0),
			Y:             pois.Key(yKey).MustFloat64(0),
			CriticalLevel: pois.Key(fmt.Sprintf("poi_%d_critical_level", i)).MustInt(1),
		})
	}

	comm := file.Section("Communication")
	spec.Communication = Communication{
		PacketLossProbability: comm.Key("packet_loss_probability").MustFloat64(0.01),
		TransmissionDelay:     comm.Key("transmission_delay_per_hop").MustFloat64(0.1),
		MaxQueueSize:          comm.Key("max_queue_size").MustInt(16),
		BroadcastInterval:     comm.Key("poi_broadcast_interval").MustInt(1),
		MaxHops:               comm.Key("max_hops").MustInt(0),
	}

	spec.Faults = Faults{
		SensorFailureRatePerRound: file.Section("Faults").Key("sensor_failure_rate_per_round").MustFloat64(0),
	}

	opt := file.Section("DeploymentOptimizer")
	spec.Optimizer = Optimizer{
		Enabled:        opt.Key("enabled").MustBool(false),
		PopulationSize: opt.Key("population_size").MustInt(30),
		Generations:    opt.Key("generations").MustInt(50),
		MutationRate:   opt.Key("mutation_rate").MustFloat64(0.1),
		CrossoverRate:  opt.Key("crossover_rate").MustFloat64(0.7),
		TournamentSize: opt.Key("tournament_size").MustInt(3),
		ElitismCount:   opt.Key("elitism_count").MustInt(1),
	}

	vis := file.Section("Visualization")
	spec.Visualization = Visualization{
		Enabled:      vis.Key("enabled").MustBool(false),
		PlotInterval: vis.Key("plot_interval").MustInt(1),
	}

	return spec, nil
}

// Validate fails fast on out-of-range values, before any round executes.
func (s *Spec) Validate() error {
	if s.General.AreaWidth <= 0 {
		return &ConfigError{Field: "General.area_width", Reason: "must be positive"}
	}
	if s.General.AreaHeight <= 0 {
		return &ConfigError{Field: "General.area_height", Reason: "must be positive"}
	}
	if s.NetworkLogic.TargetKCoverage < 1 {
		return &ConfigError{Field: "NetworkLogic.target_k_coverage", Reason: "must be >= 1"}
	}
	if s.NetworkLogic.WorkingTimeSlice <= 0 {
		return &ConfigError{Field: "NetworkLogic.cover_set_working_time_slice", Reason: "must be positive"}
	}
	switch s.NetworkLogic.EndCondition {
	case sim.EndAllSensorsDead, sim.EndMaxRounds, sim.EndCoverageLost:
	default:
		return &ConfigError{Field: "NetworkLogic.end_condition", Reason: fmt.Sprintf("unknown condition %q", s.NetworkLogic.EndCondition)}
	}
	if _, err := sim.NewRewardStrategy(s.NetworkLogic.RewardMethod); err != nil {
		return &ConfigError{Field: "NetworkLogic.reward_method", Reason: err.Error()}
	}
	if p := s.Communication.PacketLossProbability; p < 0 || p > 1 {
		return &ConfigError{Field: "Communication.packet_loss_probability", Reason: "must be within [0,1]"}
	}
	if s.Communication.TransmissionDelay < 0 {
		return &ConfigError{Field: "Communication.transmission_delay_per_hop", Reason: "must be >= 0"}
	}
	if s.Communication.MaxQueueSize < 1 {
		return &ConfigError{Field: "Communication.max_queue_size", Reason: "must be >= 1"}
	}
	if s.Communication.BroadcastInterval < 1 {
		return &ConfigError{Field: "Communication.poi_broadcast_interval", Reason: "must be >= 1"}
	}
	if p := s.Faults.SensorFailureRatePerRound; p < 0 || p > 1 {
		return &ConfigError{Field: "Faults.sensor_failure_rate_per_round", Reason: "must be within [0,1]"}
	}
	sinkFound := false
	for _, ss := range s.Sensors {
		if ss.ID == s.General.SinkID {
			sinkFound = true
		}
	}
	if len(s.Sensors) > 0 && !sinkFound {
		return &ConfigError{Field: "General.sink_id", Reason: fmt.Sprintf("sink id %d not present in [Sensors]", s.General.SinkID)}
	}
	if s.Optimizer.Enabled {
		if s.Optimizer.PopulationSize < 2 {
			return &ConfigError{Field: "DeploymentOptimizer.population_size", Reason: "must be >= 2"}
		}
		if s.Optimizer.Generations < 1 {
			return &ConfigError{Field: "DeploymentOptimizer.generations", Reason: "must be >= 1"}
		}
		if p := s.Optimizer.MutationRate; p < 0 || p > 1 {
			return &ConfigError{Field: "DeploymentOptimizer.mutation_rate", Reason: "must be within [0,1]"}
		}
		if p := s.Optimizer.CrossoverRate; p < 0 || p > 1 {
			return &ConfigError{Field: "DeploymentOptimizer.crossover_rate", Reason: "must be within [0,1]"}
		}
		if s.Optimizer.TournamentSize < 1 || s.Optimizer.TournamentSize > s.Optimizer.PopulationSize {
			return &ConfigError{Field: "DeploymentOptimizer.tournament_size", Reason: "must be within [1, population_size]"}
		}
		if s.Optimizer.ElitismCount < 0 || s.Optimizer.ElitismCount >= s.Optimizer.PopulationSize {
			return &ConfigError{Field: "DeploymentOptimizer.elitism_count", Reason: "must be within [0, population_size)"}
		}
	}
	return nil
}

// Area returns the simulation bounds.
func (s *Spec) Area() sim.Bounds {
	return sim.Bounds{Width: s.General.AreaWidth, Height: s.General.AreaHeight}
}

// EngineConfig converts the scenario into an engine configuration.
func (s *Spec) EngineConfig() sim.EngineConfig {
	return sim.EngineConfig{
		Network: sim.NetworkConfig{
			Area:             s.Area(),
			TargetKCoverage:  s.NetworkLogic.TargetKCoverage,
			RewardMethod:     s.NetworkLogic.RewardMethod,
			WorkingTimeSlice: s.NetworkLogic.WorkingTimeSlice,
			EndCondition:     s.NetworkLogic.EndCondition,
			MaxRounds:        s.General.MaxRounds,
		},
		Comm: sim.CommConfig{
			PacketLossProbability: s.Communication.PacketLossProbability,
			DelayPerHop:           s.Communication.TransmissionDelay,
			MaxQueueSize:          s.Communication.MaxQueueSize,
			BroadcastInterval:     s.Communication.BroadcastInterval,
			MaxHops:               s.Communication.MaxHops,
		},
		Faults: sim.FaultConfig{
			FailureRatePerRound: s.Faults.SensorFailureRatePerRound,
		},
	}
}

// Deploy materializes the sensor and POI sets. Sensors without a configured
// position are placed uniformly at random inside the area using rng; the
// configured sink id becomes the sink node. Positions in the overrides slice
// (optimizer output, one point per sensor slot in spec order) take precedence
// over both.
func (s *Spec) Deploy(rng *rand.Rand, overrides []sim.Point) (sensors []*sim.Sensor, sink *sim.Sensor, pois []*sim.POI) {
	area := s.Area()
	for i, ss := range s.Sensors {
		pos := sim.Point{X: ss.X, Y: ss.Y}
		if !ss.HasPos {
			pos = area.RandomPoint(rng)
		}
		if overrides != nil && i < len(overrides) {
			pos = overrides[i]
		}
		if ss.ID == s.General.SinkID {
			sink = sim.NewSink(ss.ID, pos, ss.CommRange)
			continue
		}
		sensors = append(sensors, sim.NewSensor(
			ss.ID, pos, ss.InitialEnergy, ss.CommRange, ss.SensingRange, ss.LAParamA,
			s.Communication.MaxQueueSize,
		))
	}
	for _, ps := range s.POIs {
		pois = append(pois, &sim.POI{
			ID:            ps.ID,
			Pos:           sim.Point{X: ps.X, Y: ps.Y},
			CriticalLevel: ps.CriticalLevel,
		})
	}
	return sensors, sink, pois
}
