package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austin-mroz/stk/internal/model"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	return store
}

func record(runID, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		RunID:           runID,
		CreatedAtUTC:    createdAt,
		PopulationSize:  4,
		Generations:     10,
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, record("r1", "2026-08-01T00:00:00Z")))

	got, found, err := store.GetRun(ctx, "r1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, 4, got.PopulationSize)

	_, found, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreListRunsSorted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, record("r2", "2026-08-02T00:00:00Z")))
	require.NoError(t, store.SaveRun(ctx, record("r1", "2026-08-01T00:00:00Z")))
	require.NoError(t, store.SaveRun(ctx, record("r0", "2026-08-02T00:00:00Z")))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r1", runs[0].RunID)
	assert.Equal(t, "r0", runs[1].RunID)
	assert.Equal(t, "r2", runs[2].RunID)
}

func TestMemoryStoreCheckpoints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCheckpoint(ctx, "r1", 0, []byte("initial")))
	require.NoError(t, store.SaveCheckpoint(ctx, "r1", 2, []byte("two")))
	require.NoError(t, store.SaveCheckpoint(ctx, "r1", 1, []byte("one")))
	require.NoError(t, store.SaveCheckpoint(ctx, "other", 9, []byte("x")))

	blob, found, err := store.GetCheckpoint(ctx, "r1", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("one"), blob)

	gen, blob, found, err := store.LatestCheckpoint(ctx, "r1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, gen)
	assert.Equal(t, []byte("two"), blob)

	_, _, found, err = store.LatestCheckpoint(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreCheckpointCopiesBlob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	blob := []byte("original")
	require.NoError(t, store.SaveCheckpoint(ctx, "r1", 0, blob))
	blob[0] = 'X'

	got, found, err := store.GetCheckpoint(ctx, "r1", 0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, _, err := store.GetCheckpoint(ctx, "r1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStoreProgressAndDiagnostics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snapshots := []model.ProgressSnapshot{{Generation: 0}, {Generation: 1}}
	require.NoError(t, store.SaveProgress(ctx, "r1", snapshots))

	got, found, err := store.GetProgress(ctx, "r1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snapshots, got)

	stats := []model.GenerationStats{{Generation: 1, BestScaled: 4}}
	require.NoError(t, store.SaveGenerationStats(ctx, "r1", stats))

	gotStats, found, err := store.GetGenerationStats(ctx, "r1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stats, gotStats)

	_, found, err = store.GetProgress(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewStoreKinds(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore("bogus", "")
	assert.Error(t, err)
}
