package storage

import (
	"context"

	"github.com/austin-mroz/stk/internal/model"
)

// Store persists run-level records alongside the filesystem checkpoints:
// run summaries, generation checkpoints, progress sequences and
// diagnostics, keyed by run ID so finished runs stay queryable.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, record model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveCheckpoint(ctx context.Context, runID string, generation int, blob []byte) error
	GetCheckpoint(ctx context.Context, runID string, generation int) ([]byte, bool, error)
	LatestCheckpoint(ctx context.Context, runID string) (int, []byte, bool, error)
	SaveProgress(ctx context.Context, runID string, snapshots []model.ProgressSnapshot) error
	GetProgress(ctx context.Context, runID string) ([]model.ProgressSnapshot, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
}
