package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
output: /tmp/run-out
population_size: 8
generations: 20
crossovers: 4
mutations: 4
seed: 42
workers: 2
timeout: 30s
initializer:
  name: random_vector
  params:
    dimensions: 3
crossover:
  name: blend
mutation:
  name: gaussian
  params:
    sigma: 0.25
fitness:
  name: sphere
selection:
  name: tournament
  params:
    tournament_size: 3
normalization:
  - name: shift_up
  - name: sum
exit:
  name: fitness_goal
  params:
    goal: -0.001
store:
  kind: sqlite
  path: /tmp/stk.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/run-out", cfg.Output)
	assert.Equal(t, 8, cfg.PopulationSize)
	assert.Equal(t, 20, cfg.Generations)
	assert.Equal(t, "random_vector", cfg.Initializer.Name)
	assert.Equal(t, 3, cfg.Initializer.Params["dimensions"])
	assert.Equal(t, "tournament", cfg.Selection.Name)
	require.Len(t, cfg.Normalization, 2)
	assert.Equal(t, "shift_up", cfg.Normalization[0].Name)
	require.NotNil(t, cfg.Exit)
	assert.Equal(t, "fitness_goal", cfg.Exit.Name)
	assert.Equal(t, "sqlite", cfg.Store.Kind)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestApplyDefaults(t *testing.T) {
	cfg := RunConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "roulette", cfg.Selection.Name)
	assert.Equal(t, "none", cfg.Optimizer.Name)
	assert.Equal(t, "memory", cfg.Store.Kind)
}

func minimalConfig() RunConfig {
	cfg := RunConfig{
		Output:         "/tmp/out",
		PopulationSize: 4,
		Generations:    1,
		Initializer:    Strategy{Name: "random_vector"},
		Crossover:      Strategy{Name: "blend"},
		Mutation:       Strategy{Name: "gaussian"},
		Fitness:        Strategy{Name: "sphere"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"missing output", func(c *RunConfig) { c.Output = "" }},
		{"zero generations", func(c *RunConfig) { c.Generations = 0 }},
		{"missing crossover", func(c *RunConfig) { c.Crossover.Name = "" }},
		{"missing mutation", func(c *RunConfig) { c.Mutation.Name = "" }},
		{"missing fitness", func(c *RunConfig) { c.Fitness.Name = "" }},
		{"fresh run without population size", func(c *RunConfig) { c.PopulationSize = 0 }},
		{"fresh run without initializer", func(c *RunConfig) { c.Initializer.Name = "" }},
		{"unnamed normalization step", func(c *RunConfig) { c.Normalization = []Strategy{{}} }},
		{"unnamed exit predicate", func(c *RunConfig) { c.Exit = &Strategy{} }},
		{"bad store kind", func(c *RunConfig) { c.Store.Kind = "postgres" }},
		{"sqlite without path", func(c *RunConfig) { c.Store.Kind = "sqlite" }},
		{"malformed timeout", func(c *RunConfig) { c.Timeout = "forever" }},
		{"negative timeout", func(c *RunConfig) { c.Timeout = "-1s" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	base := minimalConfig()
	assert.NoError(t, base.Validate())
}

func TestRestartConfigNeedsNoInitializer(t *testing.T) {
	cfg := minimalConfig()
	cfg.Restart = "/tmp/out/1/selected/pop_dump.json"
	cfg.PopulationSize = 0
	cfg.Initializer = Strategy{}

	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "output: [unbalanced"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "output: /tmp/out\n"))
	assert.Error(t, err, "defaults alone do not satisfy validation")
}
