package stk

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
)

func dumpScoredCheckpoint(t *testing.T, dir, name string, scores ...float64) string {
	t.Helper()
	members := make([]model.Candidate, 0, len(scores))
	for _, score := range scores {
		c := model.NewCandidate([]byte(fmt.Sprintf("%s:%v", name, score)), 0).WithRawFitness([]float64{score})
		c.ScaledFitness = score
		c.Scaled = true
		members = append(members, c)
	}
	path := filepath.Join(dir, name+".json")
	require.NoError(t, population.New(name, members).Dump(path))
	return path
}

func TestCompareRanksCheckpoints(t *testing.T) {
	dir := t.TempDir()
	first := dumpScoredCheckpoint(t, dir, "first", 1, 2)
	second := dumpScoredCheckpoint(t, dir, "second", 5, 3)

	cmp, err := Compare([]string{first, second})
	require.NoError(t, err)
	require.Len(t, cmp.Entries, 2)

	assert.Equal(t, first, cmp.Entries[0].Path)
	assert.Equal(t, "first", cmp.Entries[0].Name)
	assert.Equal(t, 2, cmp.Entries[0].Size)
	assert.Equal(t, 2.0, cmp.Entries[0].BestScaled)
	assert.Equal(t, 1.5, cmp.Entries[0].MeanScaled)

	assert.Equal(t, second, cmp.Entries[1].Path)
	assert.Equal(t, 5.0, cmp.Entries[1].BestScaled)
	assert.Equal(t, 4.0, cmp.Entries[1].MeanScaled)

	assert.Equal(t, second, cmp.BestPath)
	assert.Equal(t, 5.0, cmp.BestScaled)

	winner := model.NewCandidate([]byte("second:5"), 0)
	assert.Equal(t, winner.Identity, cmp.BestIdentity)
}

func TestCompareNeedsTwoCheckpoints(t *testing.T) {
	dir := t.TempDir()
	only := dumpScoredCheckpoint(t, dir, "only", 1)

	_, err := Compare([]string{only})
	assert.ErrorContains(t, err, "at least two checkpoints")
}

func TestCompareRejectsMissingCheckpoint(t *testing.T) {
	dir := t.TempDir()
	first := dumpScoredCheckpoint(t, dir, "first", 1)

	_, err := Compare([]string{first, filepath.Join(dir, "absent.json")})
	assert.Error(t, err)
}
