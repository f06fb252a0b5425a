package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/austin-mroz/stk/internal/model"
)

type checkpointKey struct {
	runID      string
	generation int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	checkpoints map[checkpointKey][]byte
	progress    map[string][]model.ProgressSnapshot
	diagnostics map[string][]model.GenerationStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.checkpoints = make(map[checkpointKey][]byte)
	s.progress = make(map[string][]model.ProgressSnapshot)
	s.diagnostics = make(map[string][]model.GenerationStats)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[runID]
	return record, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].RunID < out[j].RunID
		}
		return out[i].CreatedAtUTC < out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, runID string, generation int, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints[checkpointKey{runID, generation}] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, runID string, generation int) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.checkpoints[checkpointKey{runID, generation}]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context, runID string) (int, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := -1
	var blob []byte
	for key, data := range s.checkpoints {
		if key.runID == runID && key.generation > latest {
			latest = key.generation
			blob = data
		}
	}
	if latest < 0 {
		return 0, nil, false, nil
	}
	return latest, append([]byte(nil), blob...), true, nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, runID string, snapshots []model.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[runID] = append([]model.ProgressSnapshot(nil), snapshots...)
	return nil
}

func (s *MemoryStore) GetProgress(_ context.Context, runID string) ([]model.ProgressSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.progress[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.ProgressSnapshot(nil), snapshots...), true, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, stats []model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics[runID] = append([]model.GenerationStats(nil), stats...)
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationStats(nil), stats...), true, nil
}
