// Package config loads and validates the run configuration consumed by the
// engine: target population size, generation budget, named strategies with
// their parameters, and the optional restart source.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/austin-mroz/stk/internal/storage"
)

// Strategy names one registered strategy plus its parameters.
type Strategy struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// StoreConfig selects the run-store backend.
type StoreConfig struct {
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=memory sqlite"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// RunConfig is the full configuration of one engine run.
type RunConfig struct {
	Output         string        `yaml:"output" json:"output" validate:"required"`
	PopulationSize int           `yaml:"population_size" json:"population_size" validate:"min=0"`
	Generations    int           `yaml:"generations" json:"generations" validate:"required,min=1"`
	Crossovers     int           `yaml:"crossovers,omitempty" json:"crossovers,omitempty" validate:"min=0"`
	Mutations      int           `yaml:"mutations,omitempty" json:"mutations,omitempty" validate:"min=0"`
	Seed           int64         `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers        int           `yaml:"workers,omitempty" json:"workers,omitempty" validate:"min=0"`

	// Timeout bounds each candidate-level refinement or evaluation, in
	// time.ParseDuration syntax. A timed-out candidate is marked failed.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Restart points at a prior population checkpoint. When set, the
	// restored population replaces the initializer and fixes the
	// population size for the rest of the run.
	Restart string `yaml:"restart,omitempty" json:"restart,omitempty"`

	Initializer   Strategy    `yaml:"initializer" json:"initializer"`
	Crossover     Strategy    `yaml:"crossover" json:"crossover"`
	Mutation      Strategy    `yaml:"mutation" json:"mutation"`
	Fitness       Strategy    `yaml:"fitness" json:"fitness"`
	Optimizer     Strategy    `yaml:"optimizer,omitempty" json:"optimizer,omitempty"`
	Selection     Strategy    `yaml:"selection,omitempty" json:"selection,omitempty"`
	Normalization []Strategy  `yaml:"normalization,omitempty" json:"normalization,omitempty"`
	Exit          *Strategy   `yaml:"exit,omitempty" json:"exit,omitempty"`
	Store         StoreConfig `yaml:"store,omitempty" json:"store,omitempty"`
}

// ApplyDefaults fills unset knobs before validation.
func (c *RunConfig) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Selection.Name == "" {
		c.Selection.Name = "roulette"
	}
	if c.Optimizer.Name == "" {
		c.Optimizer.Name = "none"
	}
	if c.Store.Kind == "" {
		c.Store.Kind = storage.KindMemory
	}
}

// Validate checks the configuration, including the cross-field rules the
// struct tags cannot express.
func (c *RunConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	if c.Crossover.Name == "" {
		return fmt.Errorf("invalid run config: crossover is required")
	}
	if c.Mutation.Name == "" {
		return fmt.Errorf("invalid run config: mutation is required")
	}
	if c.Fitness.Name == "" {
		return fmt.Errorf("invalid run config: fitness is required")
	}
	for _, step := range c.Normalization {
		if step.Name == "" {
			return fmt.Errorf("invalid run config: normalization step without a name")
		}
	}
	if c.Exit != nil && c.Exit.Name == "" {
		return fmt.Errorf("invalid run config: exit predicate without a name")
	}
	if c.Restart == "" {
		if c.PopulationSize <= 0 {
			return fmt.Errorf("invalid run config: population_size must be > 0 for a fresh run")
		}
		if c.Initializer.Name == "" {
			return fmt.Errorf("invalid run config: initializer is required for a fresh run")
		}
	}
	if c.Store.Kind == storage.KindSQLite && c.Store.Path == "" {
		return fmt.Errorf("invalid run config: sqlite store requires a path")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses the per-candidate timeout; zero when unset.
func (c *RunConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid run config: timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid run config: timeout must be >= 0")
	}
	return d, nil
}

// Load reads, defaults and validates a YAML run configuration.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}
