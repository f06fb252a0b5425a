package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsBadInvocations(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, run(ctx, nil), "missing command")
	assert.Error(t, run(ctx, []string{"bogus"}), "unknown command")
	assert.Error(t, run(ctx, []string{"run"}), "run requires -config")
	assert.Error(t, run(ctx, []string{"resume"}), "resume requires -output")
	assert.Error(t, run(ctx, []string{"progress", "-store", "memory"}), "progress requires -run")
	assert.Error(t, run(ctx, []string{"compare", "one.json"}), "compare requires two checkpoints")
}

func TestCompareCommandRanksCheckpoints(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	configPath := filepath.Join(dir, "run.yaml")

	content := fmt.Sprintf(`
output: %s
population_size: 4
generations: 2
seed: 5
initializer:
  name: random_vector
  params:
    dimensions: 2
crossover:
  name: blend
mutation:
  name: gaussian
fitness:
  name: sphere
`, output)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	require.NoError(t, run(context.Background(), []string{"run", "-config", configPath, "-store", "memory"}))

	first := filepath.Join(output, "1", "selected", "pop_dump.json")
	second := filepath.Join(output, "2", "selected", "pop_dump.json")
	assert.NoError(t, run(context.Background(), []string{"compare", first, second}))
}

func TestRunCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	configPath := filepath.Join(dir, "run.yaml")

	content := fmt.Sprintf(`
output: %s
population_size: 4
generations: 2
seed: 3
initializer:
  name: random_vector
  params:
    dimensions: 2
crossover:
  name: blend
mutation:
  name: gaussian
fitness:
  name: sphere
`, output)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	err := run(context.Background(), []string{"run", "-config", configPath, "-store", "memory"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(output, "2", "selected", "pop_dump.json"))
	assert.NoError(t, err)
}

func TestProgressCommandUnknownRun(t *testing.T) {
	err := run(context.Background(), []string{"progress", "-run", "nope", "-store", "memory"})
	assert.Error(t, err)
}

func TestRunsCommandEmptyStore(t *testing.T) {
	assert.NoError(t, run(context.Background(), []string{"runs", "-store", "memory"}))
}
