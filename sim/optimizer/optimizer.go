// Package optimizer implements the genetic algorithm that evolves sensor
// deployments, treating a full simulation run as the fitness evaluation.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sim/wsn-sim/sim"
)

// FitnessFunc scores one candidate deployment. It must be safe for concurrent
// use: every call receives its own derived SimulationKey and must not share
// mutable state across calls. An evaluation that cannot complete returns an
// error and is scored as worst-possible fitness rather than aborting the run.
type FitnessFunc func(positions []sim.Point, key sim.SimulationKey) (float64, error)

// Config holds the genetic algorithm parameters.
type Config struct {
	SensorCount    int
	Area           sim.Bounds
	PopulationSize int
	Generations    int
	MutationRate   float64 // per-gene mutation probability
	CrossoverRate  float64
	TournamentSize int
	ElitismCount   int
	// Workers bounds concurrent fitness evaluations; <= 0 means sequential.
	Workers int
	// TargetFitness stops the search early once reached; 0 disables.
	TargetFitness float64
	// MasterSeed drives the GA's own draws and derives one independent
	// SimulationKey per fitness evaluation.
	MasterSeed sim.SimulationKey
}

// Result is the outcome of an optimization run.
type Result struct {
	Best        Individual
	BestFitness float64
	// BestHistory records the best-ever fitness after each generation.
	// Non-decreasing whenever ElitismCount >= 1.
	BestHistory []float64
	Generations int
}

// Optimizer evolves deployments with tournament selection, one-point
// crossover, gaussian position mutation and elitism.
type Optimizer struct {
	cfg     Config
	fitness FitnessFunc
	rng     *rand.Rand

	// population is an indexed arena; fitnesses is computed separately so
	// selection never mutates the arena it reads.
	population []Individual
	fitnesses  []float64
}

// mutationSigmaFraction scales the gaussian mutation step to the area size.
const mutationSigmaFraction = 0.05

// New creates an Optimizer. The fitness function defines what a good
// deployment means and is deliberately pluggable.
func New(cfg Config, fitness FitnessFunc) (*Optimizer, error) {
	if cfg.SensorCount < 1 {
		return nil, fmt.Errorf("optimizer: sensor count must be >= 1")
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("optimizer: population size must be >= 2")
	}
	if cfg.TournamentSize < 1 || cfg.TournamentSize > cfg.PopulationSize {
		return nil, fmt.Errorf("optimizer: tournament size must be within [1, population size]")
	}
	if cfg.ElitismCount < 0 || cfg.ElitismCount >= cfg.PopulationSize {
		return nil, fmt.Errorf("optimizer: elitism count must be within [0, population size)")
	}
	if fitness == nil {
		return nil, fmt.Errorf("optimizer: fitness function is required")
	}
	return &Optimizer{
		cfg:     cfg,
		fitness: fitness,
		rng:     sim.NewPartitionedRNG(cfg.MasterSeed).ForSubsystem(sim.SubsystemDeployment),
	}, nil
}

// Run executes the search. Cancellation is honored at generation boundaries;
// the best individual seen so far is returned alongside the context error.
// The best-ever individual is tracked across all generations, since elitism
// alone does not guarantee the final population contains it.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	o.population = make([]Individual, o.cfg.PopulationSize)
	for i := range o.population {
		o.population[i] = randomIndividual(o.cfg.SensorCount, o.cfg.Area, o.rng)
	}

	result := Result{BestFitness: math.Inf(-1)}
	for gen := 0; gen < o.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		o.fitnesses = o.evaluate(gen)
		ranked := o.rank()

		if best := o.fitnesses[ranked[0]]; best > result.BestFitness {
			result.BestFitness = best
			result.Best = o.population[ranked[0]].Clone()
		}
		result.BestHistory = append(result.BestHistory, result.BestFitness)
		result.Generations = gen + 1

		if (gen+1)%10 == 0 || gen == o.cfg.Generations-1 {
			logrus.Infof("[gen %03d/%03d] best=%.3f overall=%.3f",
				gen+1, o.cfg.Generations, o.fitnesses[ranked[0]], result.BestFitness)
		}
		if o.cfg.TargetFitness > 0 && result.BestFitness >= o.cfg.TargetFitness {
			logrus.Infof("[gen %03d] target fitness reached, stopping early", gen+1)
			break
		}
		if gen == o.cfg.Generations-1 {
			break
		}

		o.population = o.nextGeneration(ranked)
	}
	return result, nil
}

// evaluate scores the whole population. Each individual draws from its own
// SimulationKey derived from (master seed, generation, index), so results are
// identical whether evaluations run sequentially or across workers.
func (o *Optimizer) evaluate(gen int) []float64 {
	fitnesses := make([]float64, len(o.population))

	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(o.population) {
		workers = len(o.population)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				key := sim.EvaluationKey(o.cfg.MasterSeed, gen, idx)
				score, err := o.fitness(o.population[idx].Positions, key)
				if err != nil {
					logrus.Warnf("[gen %03d] evaluation %d failed, scoring worst: %v", gen, idx, err)
					score = math.Inf(-1)
				}
				fitnesses[idx] = score
			}
		}()
	}
	for idx := range o.population {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return fitnesses
}

// rank returns population indices sorted by fitness, best first.
// Ties break toward the lower index so ranking is deterministic.
func (o *Optimizer) rank() []int {
	ranked := make([]int, len(o.population))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return o.fitnesses[ranked[a]] > o.fitnesses[ranked[b]]
	})
	return ranked
}

// nextGeneration builds the successor population: elites survive unchanged,
// the remainder comes from tournament-selected parents via crossover and
// mutation.
func (o *Optimizer) nextGeneration(ranked []int) []Individual {
	next := make([]Individual, 0, o.cfg.PopulationSize)
	for i := 0; i < o.cfg.ElitismCount; i++ {
		next = append(next, o.population[ranked[i]].Clone())
	}
	for len(next) < o.cfg.PopulationSize {
		p1 := o.tournament()
		p2 := o.tournament()
		c1, c2 := o.crossover(p1, p2)
		next = append(next, o.mutate(c1))
		if len(next) < o.cfg.PopulationSize {
			next = append(next, o.mutate(c2))
		}
	}
	return next
}

// tournament draws TournamentSize distinct individuals uniformly and returns
// the fittest.
func (o *Optimizer) tournament() Individual {
	perm := o.rng.Perm(len(o.population))[:o.cfg.TournamentSize]
	best := perm[0]
	for _, idx := range perm[1:] {
		if o.fitnesses[idx] > o.fitnesses[best] {
			best = idx
		}
	}
	return o.population[best]
}

// crossover performs one-point crossover at a position boundary with
// probability CrossoverRate; otherwise the offspring are parent copies.
func (o *Optimizer) crossover(p1, p2 Individual) (Individual, Individual) {
	c1, c2 := p1.Clone(), p2.Clone()
	if o.rng.Float64() >= o.cfg.CrossoverRate || len(p1.Positions) < 2 {
		return c1, c2
	}
	point := 1 + o.rng.Intn(len(p1.Positions)-1)
	for i := point; i < len(p1.Positions); i++ {
		c1.Positions[i], c2.Positions[i] = p2.Positions[i], p1.Positions[i]
	}
	return c1, c2
}

// mutate perturbs each position with probability MutationRate by a gaussian
// step scaled to the area, clamped back inside the bounds.
func (o *Optimizer) mutate(ind Individual) Individual {
	for i := range ind.Positions {
		if o.rng.Float64() >= o.cfg.MutationRate {
			continue
		}
		p := ind.Positions[i]
		p.X += o.rng.NormFloat64() * o.cfg.Area.Width * mutationSigmaFraction
		p.Y += o.rng.NormFloat64() * o.cfg.Area.Height * mutationSigmaFraction
		ind.Positions[i] = o.cfg.Area.Clamp(p)
	}
	return ind
}
