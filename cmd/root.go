package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wsn-sim/wsn-sim/sim"
	"github.com/wsn-sim/wsn-sim/sim/optimizer"
	"github.com/wsn-sim/wsn-sim/sim/scenario"
)

var (
	scenarioPath string // Path to the INI scenario file
	logLevel     string // Log verbosity level
	seed         int64  // Master seed override; negative = use scenario's random_seed
	metricsAddr  string // Optional address to serve Prometheus metrics on
	workers      int    // Concurrent fitness evaluations for the optimizer
	outPath      string // Where the optimizer writes the best deployment
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "wsn-sim",
	Short: "Round-based wireless sensor network coverage simulator",
}

// setupLogging applies the --log flag; invalid levels abort before any round runs.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// masterKey resolves the seed precedence: CLI flag over scenario file.
func masterKey(spec *scenario.Spec) sim.SimulationKey {
	if seed >= 0 {
		return sim.NewSimulationKey(seed)
	}
	return sim.NewSimulationKey(spec.General.RandomSeed)
}

// buildEngine deploys the scenario (optionally with optimized positions) and
// assembles an engine keyed to the given simulation key.
func buildEngine(spec *scenario.Spec, key sim.SimulationKey, overrides []sim.Point) (*sim.Engine, error) {
	placementRNG := sim.NewPartitionedRNG(key).ForSubsystem(sim.SubsystemDeployment)
	sensors, sink, pois := spec.Deploy(placementRNG, overrides)
	return sim.NewEngine(key, spec.EngineConfig(), sensors, sink, pois)
}

// runCmd executes a single simulation from a scenario file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation from a scenario file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		spec, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Scenario rejected: %v", err)
		}
		key := masterKey(spec)

		engine, err := buildEngine(spec, key, nil)
		if err != nil {
			logrus.Fatalf("Engine setup failed: %v", err)
		}

		if metricsAddr != "" {
			registry := prometheus.NewRegistry()
			collector, err := sim.NewCollector(registry, spec.NetworkLogic.TargetKCoverage, engine.POIs)
			if err != nil {
				logrus.Fatalf("Metrics registration failed: %v", err)
			}
			engine.OnRound = collector.ObserveRound
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			go func() {
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					logrus.Warnf("Metrics endpoint stopped: %v", err)
				}
			}()
			logrus.Infof("Serving Prometheus metrics on %s/metrics", metricsAddr)
		}

		logrus.Infof("Starting simulation: %d sensors, %d POIs, seed=%d, end_condition=%s",
			len(engine.Sensors), len(engine.POIs), int64(key), spec.NetworkLogic.EndCondition)
		startTime := time.Now()

		if err := engine.Run(cmd.Context()); err != nil {
			logrus.Warnf("Simulation interrupted: %v", err)
		}
		engine.Metrics.Print()

		logrus.Infof("Simulation complete in %s (%d rounds).", time.Since(startTime), engine.Round)
	},
}

// deploymentOut is the YAML shape of an optimized deployment.
type deploymentOut struct {
	Fitness   float64       `yaml:"fitness"`
	Positions []positionOut `yaml:"positions"`
}

type positionOut struct {
	ID   int     `yaml:"id"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Sink bool    `yaml:"sink,omitempty"`
}

// optimizeCmd evolves sensor placements with the genetic algorithm, using
// full simulation runs as the fitness oracle.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for a sensor deployment with the genetic algorithm",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		spec, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Scenario rejected: %v", err)
		}
		if !spec.Optimizer.Enabled {
			logrus.Fatalf("DeploymentOptimizer is disabled in %s", scenarioPath)
		}
		key := masterKey(spec)

		cfg := optimizer.Config{
			SensorCount:    len(spec.Sensors),
			Area:           spec.Area(),
			PopulationSize: spec.Optimizer.PopulationSize,
			Generations:    spec.Optimizer.Generations,
			MutationRate:   spec.Optimizer.MutationRate,
			CrossoverRate:  spec.Optimizer.CrossoverRate,
			TournamentSize: spec.Optimizer.TournamentSize,
			ElitismCount:   spec.Optimizer.ElitismCount,
			Workers:        workers,
			MasterSeed:     key,
		}

		opt, err := optimizer.New(cfg, simulationFitness(spec))
		if err != nil {
			logrus.Fatalf("Optimizer setup failed: %v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Optimizing deployment: pop=%d gens=%d sensors=%d workers=%d",
			cfg.PopulationSize, cfg.Generations, cfg.SensorCount, workers)
		startTime := time.Now()

		result, err := opt.Run(ctx)
		if err != nil {
			logrus.Warnf("Optimization stopped early: %v", err)
		}
		logrus.Infof("Optimization finished in %s after %d generations, best fitness %.3f",
			time.Since(startTime), result.Generations, result.BestFitness)

		out := deploymentOut{Fitness: result.BestFitness}
		for i, pos := range result.Best.Positions {
			ss := spec.Sensors[i]
			out.Positions = append(out.Positions, positionOut{
				ID:   ss.ID,
				X:    pos.X,
				Y:    pos.Y,
				Sink: ss.ID == spec.General.SinkID,
			})
		}
		data, err := yaml.Marshal(&out)
		if err != nil {
			logrus.Fatalf("Encoding deployment failed: %v", err)
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			logrus.Fatalf("Writing %s failed: %v", outPath, err)
		}
		logrus.Infof("Best deployment written to %s", outPath)
	},
}

// simulationFitness scores a candidate layout by running the full engine and
// reducing its result stream: mean k-coverage dominates, then delivery
// quality, then lifetime in rounds.
func simulationFitness(spec *scenario.Spec) optimizer.FitnessFunc {
	return func(positions []sim.Point, key sim.SimulationKey) (float64, error) {
		engine, err := buildEngine(spec, key, positions)
		if err != nil {
			return 0, err
		}
		if err := engine.Run(context.Background()); err != nil {
			return 0, err
		}
		m := engine.Metrics
		return m.MeanCoverage()*1000 + m.PDR()*100 + float64(m.Rounds), nil
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "scenarios/default.ini", "Path to the INI scenario file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", -1, "Master seed override (negative = scenario's random_seed)")

	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	optimizeCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent fitness evaluations")
	optimizeCmd.Flags().StringVar(&outPath, "out", "deployment.yaml", "Output file for the best deployment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(optimizeCmd)
}
