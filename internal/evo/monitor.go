package evo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
	"github.com/austin-mroz/stk/internal/stats"
	"github.com/austin-mroz/stk/internal/storage"
	"github.com/austin-mroz/stk/internal/workdir"
)

// State names one stage of the per-run state machine.
type State string

const (
	StateInit       State = "init"
	StateOptimize   State = "optimize"
	StateEvaluate   State = "evaluate"
	StateNormalize  State = "normalize"
	StateVary       State = "vary"
	StateMergeDedup State = "merge_dedup"
	StateSelect     State = "select"
	StateCheckpoint State = "checkpoint"
	StateExitCheck  State = "exit_check"
	StateTerminal   State = "terminal"
)

type MonitorConfig struct {
	Tools          *GATools
	PopulationSize int
	Generations    int
	Crossovers     int
	Mutations      int
	Workers        int
	Seed           int64
	Timeout        time.Duration
	Layout         workdir.Layout
	RunID          string

	// Store optionally mirrors checkpoints, progress and diagnostics into
	// the run store alongside the filesystem layout.
	Store storage.Store

	// Restart holds a population restored from a prior checkpoint. When
	// set, it replaces the initializer and its size fixes PopulationSize
	// for the remainder of the run.
	Restart *population.Population

	// RestartTracker carries the restored progress sequence; its length is
	// the generation index the run resumes at.
	RestartTracker *stats.Tracker
}

type RunResult struct {
	FinalPopulation      *population.Population
	Diagnostics          []model.GenerationStats
	Progress             *stats.Tracker
	CompletedGenerations int
	ExitedEarly          bool
	BestScaled           float64
}

// Monitor drives the generational state machine: optimize → evaluate →
// normalize → vary → merge/dedup → re-optimize → re-evaluate →
// re-normalize → select → checkpoint → exit-check, holding one population
// snapshot per generation and enforcing the size invariant at the two
// mandated checkpoints.
type Monitor struct {
	cfg       MonitorConfig
	rng       *rand.Rand
	evaluator *Evaluator
	refiner   *Refiner
	tracker   *stats.Tracker
	state     State
}

func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tools are required")
	}
	if cfg.Tools.Fitness == nil {
		return nil, fmt.Errorf("fitness strategy is required")
	}
	if cfg.Tools.Crossover == nil {
		return nil, fmt.Errorf("crossover strategy is required")
	}
	if cfg.Tools.Mutator == nil {
		return nil, fmt.Errorf("mutator strategy is required")
	}
	if cfg.Tools.Optimizer == nil {
		cfg.Tools.Optimizer = NoopOptimizer{}
	}
	if cfg.Tools.Selector == nil {
		cfg.Tools.Selector = RouletteSelector{}
	}
	if cfg.Tools.Pipeline == nil {
		cfg.Tools.Pipeline = NewPipeline()
	}
	if cfg.Restart == nil {
		if cfg.Tools.Initializer == nil {
			return nil, fmt.Errorf("initializer strategy is required for a fresh run")
		}
		if cfg.PopulationSize <= 0 {
			return nil, fmt.Errorf("population size must be > 0")
		}
	} else {
		if cfg.Restart.Size() <= 0 {
			return nil, fmt.Errorf("restart population is empty")
		}
		cfg.PopulationSize = cfg.Restart.Size()
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.Crossovers < 0 || cfg.Mutations < 0 {
		return nil, fmt.Errorf("crossover and mutation counts must be >= 0")
	}
	if cfg.Crossovers == 0 && cfg.Mutations == 0 {
		half := cfg.PopulationSize / 2
		if half < 1 {
			half = 1
		}
		cfg.Crossovers = half
		cfg.Mutations = half
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Layout.Root == "" {
		return nil, fmt.Errorf("run layout is required")
	}
	if cfg.RunID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	tracker := cfg.RestartTracker
	if tracker == nil {
		tracker = stats.NewTracker()
	}

	return &Monitor{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		evaluator: &Evaluator{
			Fitness: cfg.Tools.Fitness,
			Workers: cfg.Workers,
			Timeout: cfg.Timeout,
			Cleaner: cfg.Tools.Cleaner,
		},
		refiner: &Refiner{
			Optimizer: cfg.Tools.Optimizer,
			Workers:   cfg.Workers,
			Timeout:   cfg.Timeout,
		},
		tracker: tracker,
		state:   StateInit,
	}, nil
}

// State reports the stage the monitor is currently in.
func (m *Monitor) State() State {
	return m.state
}

func (m *Monitor) Run(ctx context.Context) (RunResult, error) {
	// A previous interrupted run may have left external tools holding
	// file handles inside the output tree.
	_ = m.evaluator.Cleanup(ctx)
	defer func() {
		_ = m.evaluator.Cleanup(context.WithoutCancel(ctx))
	}()

	pop, startGeneration, err := m.initialize(ctx)
	if err != nil {
		return RunResult{}, err
	}

	diagnostics := make([]model.GenerationStats, 0, m.cfg.Generations)
	completed := startGeneration - 1
	exitedEarly := false

	for generation := startGeneration; generation <= m.cfg.Generations; generation++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		if pop.Size() != m.cfg.PopulationSize {
			m.state = StateTerminal
			return RunResult{}, fmt.Errorf("%w: generation %d starts with %d candidates, want %d",
				ErrPopulationSize, generation, pop.Size(), m.cfg.PopulationSize)
		}
		if err := m.cfg.Layout.MakeGenerationDirs(generation); err != nil {
			return RunResult{}, err
		}

		m.state = StateVary
		ranked := pop.Sorted()
		offspring, err := m.generateOffspring(ctx, ranked, generation)
		if err != nil {
			return RunResult{}, err
		}
		mutants, err := m.generateMutants(ctx, ranked, generation)
		if err != nil {
			return RunResult{}, err
		}

		m.state = StateMergeDedup
		sizeBefore := pop.Size() + offspring.Size() + mutants.Size()
		merged := pop.Merge(offspring).Merge(mutants).Deduplicate()
		duplicates := sizeBefore - merged.Size()
		if err := merged.Dump(m.cfg.Layout.PreselectionCheckpointPath(generation)); err != nil {
			return RunResult{}, err
		}

		merged, err = m.refineEvaluateNormalize(ctx, merged)
		if err != nil {
			return RunResult{}, err
		}

		m.state = StateSelect
		survivors, err := SelectSurvivors(merged, m.cfg.PopulationSize, fmt.Sprintf("generation-%d", generation))
		if err != nil {
			m.state = StateTerminal
			return RunResult{}, err
		}

		m.state = StateCheckpoint
		if err := m.checkpoint(ctx, survivors, generation); err != nil {
			return RunResult{}, err
		}
		diagnostics = append(diagnostics, summarizeGeneration(survivors, generation, duplicates))
		completed = generation
		pop = survivors

		m.state = StateExitCheck
		if m.cfg.Tools.Exit != nil && m.cfg.Tools.Exit.ShouldExit(pop) {
			exitedEarly = true
			break
		}
	}

	m.state = StateTerminal
	best := 0.0
	if top, ok := pop.Best(); ok {
		best = top.ScaledFitness
	}
	return RunResult{
		FinalPopulation:      pop,
		Diagnostics:          diagnostics,
		Progress:             m.tracker,
		CompletedGenerations: completed,
		ExitedEarly:          exitedEarly,
		BestScaled:           best,
	}, nil
}

// initialize produces the starting population: generation 0 from the
// initializer strategy, or the restored checkpoint in restart mode. Fresh
// runs also publish the initial/ checkpoint.
func (m *Monitor) initialize(ctx context.Context) (*population.Population, int, error) {
	m.state = StateInit

	var pop *population.Population
	if m.cfg.Restart != nil {
		pop = m.cfg.Restart
	} else {
		candidates, err := m.cfg.Tools.Initializer.Initialize(ctx, m.rng, m.cfg.PopulationSize)
		if err != nil {
			return nil, 0, fmt.Errorf("initialize population: %w", err)
		}
		if len(candidates) != m.cfg.PopulationSize {
			return nil, 0, fmt.Errorf("%w: initializer produced %d candidates, want %d",
				ErrPopulationSize, len(candidates), m.cfg.PopulationSize)
		}
		pop = population.New("generation-0", candidates)
	}

	pop, err := m.refineEvaluateNormalize(ctx, pop)
	if err != nil {
		return nil, 0, err
	}

	// Resuming mid-run: the initial/ checkpoint already exists and the
	// restored tracker length is the next generation index.
	if m.cfg.Restart != nil && m.tracker.Len() > 0 {
		return pop, m.tracker.Len(), nil
	}

	if err := m.cfg.Layout.MakeInitialDir(); err != nil {
		return nil, 0, err
	}
	if err := pop.Write(m.cfg.Layout.InitialDir(), m.cfg.Tools.Writer); err != nil {
		return nil, 0, err
	}
	if err := pop.Dump(m.cfg.Layout.InitialCheckpointPath()); err != nil {
		return nil, 0, err
	}
	m.tracker.Update(pop)
	if err := m.tracker.Dump(m.cfg.Layout.ProgressPath()); err != nil {
		return nil, 0, err
	}
	if err := m.mirror(ctx, pop, 0); err != nil {
		return nil, 0, err
	}
	return pop, 1, nil
}

func (m *Monitor) refineEvaluateNormalize(ctx context.Context, pop *population.Population) (*population.Population, error) {
	m.state = StateOptimize
	pop, err := m.refiner.Optimize(ctx, pop)
	if err != nil {
		return nil, err
	}

	m.state = StateEvaluate
	pop, err = m.evaluator.Evaluate(ctx, pop)
	if err != nil {
		return nil, err
	}

	m.state = StateNormalize
	pop, err = m.cfg.Tools.Pipeline.Normalize(pop)
	if err != nil {
		return nil, err
	}
	return pop, nil
}

func (m *Monitor) generateOffspring(ctx context.Context, ranked []model.Candidate, generation int) (*population.Population, error) {
	children := make([]model.Candidate, 0, m.cfg.Crossovers)
	for i := 0; i < m.cfg.Crossovers; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parents, err := m.cfg.Tools.Selector.Select(m.rng, ranked, 2)
		if err != nil {
			return nil, fmt.Errorf("select crossover parents: %w", err)
		}
		payload, err := m.cfg.Tools.Crossover.Apply(ctx, m.rng, parents)
		if err != nil {
			// Operator preconditions can fail for a particular parent
			// pairing; the slot is simply lost for this generation.
			continue
		}
		children = append(children, model.NewCandidate(payload, generation,
			parents[0].Identity, parents[1].Identity))
	}
	return population.New(fmt.Sprintf("offspring-%d", generation), children), nil
}

func (m *Monitor) generateMutants(ctx context.Context, ranked []model.Candidate, generation int) (*population.Population, error) {
	mutants := make([]model.Candidate, 0, m.cfg.Mutations)
	for i := 0; i < m.cfg.Mutations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		picked, err := m.cfg.Tools.Selector.Select(m.rng, ranked, 1)
		if err != nil {
			return nil, fmt.Errorf("select mutation parent: %w", err)
		}
		parent := picked[0]
		payload, err := m.cfg.Tools.Mutator.Apply(ctx, m.rng, parent)
		if err != nil {
			continue
		}
		mutants = append(mutants, model.NewCandidate(payload, generation, parent.Identity))
	}
	return population.New(fmt.Sprintf("mutants-%d", generation), mutants), nil
}

// checkpoint publishes one generation's survivors: structure files and the
// population dump under selected/, the refreshed progress blob, and the
// run-store mirror. External tools are cleaned up first so a held handle
// cannot block the publish.
func (m *Monitor) checkpoint(ctx context.Context, survivors *population.Population, generation int) error {
	_ = m.evaluator.Cleanup(ctx)

	if err := survivors.Write(m.cfg.Layout.SelectedDir(generation), m.cfg.Tools.Writer); err != nil {
		return err
	}
	if err := survivors.Dump(m.cfg.Layout.CheckpointPath(generation)); err != nil {
		return err
	}
	m.tracker.Update(survivors)
	if err := m.tracker.Dump(m.cfg.Layout.ProgressPath()); err != nil {
		return err
	}
	return m.mirror(ctx, survivors, generation)
}

func (m *Monitor) mirror(ctx context.Context, pop *population.Population, generation int) error {
	if m.cfg.Store == nil {
		return nil
	}
	blob, err := pop.Encode()
	if err != nil {
		return err
	}
	if err := m.cfg.Store.SaveCheckpoint(ctx, m.cfg.RunID, generation, blob); err != nil {
		return fmt.Errorf("mirror checkpoint %d: %w", generation, err)
	}
	if err := m.cfg.Store.SaveProgress(ctx, m.cfg.RunID, m.tracker.Snapshots()); err != nil {
		return fmt.Errorf("mirror progress: %w", err)
	}
	return nil
}

func summarizeGeneration(pop *population.Population, generation, duplicates int) model.GenerationStats {
	out := model.GenerationStats{
		Generation: generation,
		Duplicates: duplicates,
	}
	first := true
	for c := range pop.All() {
		if first {
			out.BestScaled = c.ScaledFitness
			out.MinScaled = c.ScaledFitness
			first = false
		}
		if c.ScaledFitness > out.BestScaled {
			out.BestScaled = c.ScaledFitness
		}
		if c.ScaledFitness < out.MinScaled {
			out.MinScaled = c.ScaledFitness
		}
		out.MeanScaled += c.ScaledFitness
		if c.EvaluationFailed {
			out.FailedCount++
		}
		out.PopulationSize++
	}
	if out.PopulationSize > 0 {
		out.MeanScaled /= float64(out.PopulationSize)
	}
	return out
}
