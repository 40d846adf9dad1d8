package sim

// NetworkConfig groups the round-scheduler parameters.
type NetworkConfig struct {
	Area             Bounds  // simulation bounds
	TargetKCoverage  int     // k sensors required per POI (must be >= 1)
	RewardMethod     string  // reward strategy tag, see NewRewardStrategy
	WorkingTimeSlice float64 // energy-cost time unit for one active round
	EndCondition     string  // "all_sensors_dead", "max_rounds" or "coverage_lost"
	MaxRounds        int     // hard horizon; always enforced when > 0
}

// CommConfig groups the communication model parameters.
type CommConfig struct {
	PacketLossProbability float64 // per-hop loss probability in [0,1]
	DelayPerHop           float64 // delay accumulated per hop (>= 0)
	MaxQueueSize          int     // per-sensor outbound queue capacity (>= 1)
	BroadcastInterval     int     // POI broadcast period in rounds (>= 1)
	MaxHops               int     // hop budget per message; 0 = one hop per sensor
}

// FaultConfig groups the stochastic fault injection parameters.
type FaultConfig struct {
	FailureRatePerRound float64 // independent per-sensor death probability in [0,1]
}

// EngineConfig is the full configuration of one Network Logic Engine run.
type EngineConfig struct {
	Network NetworkConfig
	Comm    CommConfig
	Faults  FaultConfig
}

// End condition tags accepted by NetworkConfig.EndCondition.
const (
	EndAllSensorsDead = "all_sensors_dead"
	EndMaxRounds      = "max_rounds"
	EndCoverageLost   = "coverage_lost"
)
