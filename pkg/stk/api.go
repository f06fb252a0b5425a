// Package stk is the public façade over the evolutionary-optimization
// engine: it binds a run configuration to registered strategies, owns the
// run store, and drives the generational monitor.
package stk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/austin-mroz/stk/internal/config"
	"github.com/austin-mroz/stk/internal/evo"
	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
	"github.com/austin-mroz/stk/internal/stats"
	"github.com/austin-mroz/stk/internal/storage"
	"github.com/austin-mroz/stk/internal/workdir"
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func New(opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init run store: %w", err)
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

type RunSummary struct {
	RunID                string
	OutputDir            string
	CompletedGenerations int
	ExitedEarly          bool
	BestScaled           float64
	Elapsed              time.Duration
	Diagnostics          []model.GenerationStats
	Progress             []model.ProgressSnapshot
}

// Run executes one configured run in a fresh output directory.
func (c *Client) Run(ctx context.Context, cfg config.RunConfig) (RunSummary, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	layout, err := workdir.NewLayout(cfg.Output)
	if err != nil {
		return RunSummary{}, err
	}
	if err := writeRunConfigCopy(layout, cfg); err != nil {
		return RunSummary{}, err
	}

	var restart *population.Population
	if cfg.Restart != "" {
		restart, err = population.Load(cfg.Restart)
		if err != nil {
			return RunSummary{}, fmt.Errorf("load restart checkpoint: %w", err)
		}
	}

	return c.drive(ctx, cfg, layout, restart, nil)
}

// Resume continues an interrupted run from its output directory, picking
// up at the generation after the last recorded checkpoint. The restored
// population's size fixes the population size for the remaining
// generations.
func (c *Client) Resume(ctx context.Context, outputDir string) (RunSummary, error) {
	layout, err := workdir.OpenLayout(outputDir)
	if err != nil {
		return RunSummary{}, err
	}

	cfg, err := readRunConfigCopy(layout)
	if err != nil {
		return RunSummary{}, err
	}

	tracker, err := stats.LoadTracker(layout.ProgressPath())
	if err != nil {
		return RunSummary{}, err
	}
	if tracker.Len() == 0 {
		return RunSummary{}, fmt.Errorf("resume %s: no recorded progress", outputDir)
	}

	checkpointPath := layout.InitialCheckpointPath()
	if tracker.Len() > 1 {
		checkpointPath = layout.CheckpointPath(tracker.Len() - 1)
	}
	restart, err := population.Load(checkpointPath)
	if err != nil {
		return RunSummary{}, fmt.Errorf("resume %s: %w", outputDir, err)
	}

	return c.drive(ctx, cfg, layout, restart, tracker)
}

// Runs lists the recorded run summaries, newest last.
func (c *Client) Runs(ctx context.Context) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx)
}

// Progress returns the stored progress sequence of a recorded run.
func (c *Client) Progress(ctx context.Context, runID string) ([]model.ProgressSnapshot, bool, error) {
	return c.store.GetProgress(ctx, runID)
}

func (c *Client) drive(ctx context.Context, cfg config.RunConfig, layout workdir.Layout, restart *population.Population, tracker *stats.Tracker) (RunSummary, error) {
	tools, err := evo.BuildTools(toolsSpec(cfg))
	if err != nil {
		return RunSummary{}, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	monitor, err := evo.NewMonitor(evo.MonitorConfig{
		Tools:          tools,
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		Crossovers:     cfg.Crossovers,
		Mutations:      cfg.Mutations,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Timeout:        timeout,
		Layout:         layout,
		RunID:          runID,
		Store:          c.store,
		Restart:        restart,
		RestartTracker: tracker,
	})
	if err != nil {
		return RunSummary{}, err
	}

	started := time.Now()
	result, err := monitor.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	elapsed := time.Since(started)

	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:          runID,
		CreatedAtUTC:   started.UTC().Format(time.RFC3339),
		Domain:         cfg.Fitness.Name,
		Seed:           cfg.Seed,
		PopulationSize: result.FinalPopulation.Size(),
		Generations:    cfg.Generations,
		CompletedGens:  result.CompletedGenerations,
		BestScaled:     result.BestScaled,
		ExitedEarly:    result.ExitedEarly,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("record run: %w", err)
	}
	if err := c.store.SaveGenerationStats(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("record diagnostics: %w", err)
	}

	return RunSummary{
		RunID:                runID,
		OutputDir:            layout.Root,
		CompletedGenerations: result.CompletedGenerations,
		ExitedEarly:          result.ExitedEarly,
		BestScaled:           result.BestScaled,
		Elapsed:              elapsed,
		Diagnostics:          result.Diagnostics,
		Progress:             result.Progress.Snapshots(),
	}, nil
}

func toolsSpec(cfg config.RunConfig) evo.ToolsSpec {
	spec := evo.ToolsSpec{
		Initializer: named(cfg.Initializer),
		Crossover:   named(cfg.Crossover),
		Mutator:     named(cfg.Mutation),
		Fitness:     named(cfg.Fitness),
		Optimizer:   named(cfg.Optimizer),
		Selector:    named(cfg.Selection),
	}
	for _, step := range cfg.Normalization {
		spec.Normalization = append(spec.Normalization, named(step))
	}
	if cfg.Exit != nil {
		exit := named(*cfg.Exit)
		spec.Exit = &exit
	}
	return spec
}

func named(s config.Strategy) evo.NamedStrategy {
	return evo.NamedStrategy{Name: s.Name, Params: evo.Params(s.Params)}
}

// The run configuration is copied into the output directory, so a run
// remains resumable and auditable from its artifacts alone.
func writeRunConfigCopy(layout workdir.Layout, cfg config.RunConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run config: %w", err)
	}
	if err := workdir.WriteFileAtomic(layout.RunConfigPath(), data); err != nil {
		return fmt.Errorf("copy run config: %w", err)
	}
	return nil
}

func readRunConfigCopy(layout workdir.Layout) (config.RunConfig, error) {
	data, err := os.ReadFile(layout.RunConfigPath())
	if err != nil {
		return config.RunConfig{}, fmt.Errorf("read run config copy: %w", err)
	}
	var cfg config.RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.RunConfig{}, fmt.Errorf("parse run config copy: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
