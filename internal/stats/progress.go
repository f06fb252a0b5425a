// Package stats records per-generation summary statistics. Snapshots are
// append-only; the restored sequence length fixes the generation index a
// resumed run continues from.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
	"github.com/austin-mroz/stk/internal/workdir"
)

const (
	currentSchemaVersion = 1
	currentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("progress version mismatch")

// Tracker accumulates one ProgressSnapshot per checkpoint.
type Tracker struct {
	snapshots []model.ProgressSnapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Restore rebuilds a tracker from previously recorded snapshots.
func Restore(snapshots []model.ProgressSnapshot) *Tracker {
	return &Tracker{snapshots: append([]model.ProgressSnapshot(nil), snapshots...)}
}

// Update appends one immutable snapshot computed from the flattened
// population. The snapshot index is the number of checkpoints recorded so
// far: the initial population is snapshot 0, generation N is snapshot N.
func (t *Tracker) Update(pop *population.Population) {
	snapshot := Summarize(pop)
	snapshot.Generation = len(t.snapshots)
	t.snapshots = append(t.snapshots, snapshot)
}

// Len is the number of recorded snapshots.
func (t *Tracker) Len() int {
	return len(t.snapshots)
}

// Snapshots returns a copy of the recorded sequence.
func (t *Tracker) Snapshots() []model.ProgressSnapshot {
	return append([]model.ProgressSnapshot(nil), t.snapshots...)
}

// Summarize computes min/max/mean of scaled fitness across all candidates
// and of every raw component across successfully evaluated candidates.
func Summarize(pop *population.Population) model.ProgressSnapshot {
	snapshot := model.ProgressSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: currentSchemaVersion,
			CodecVersion:  currentCodecVersion,
		},
	}

	scaledCount := 0
	rawCounts := make([]int, 0, 2)
	for c := range pop.All() {
		if scaledCount == 0 {
			snapshot.Scaled = model.ComponentStats{Min: c.ScaledFitness, Max: c.ScaledFitness}
		}
		if c.ScaledFitness < snapshot.Scaled.Min {
			snapshot.Scaled.Min = c.ScaledFitness
		}
		if c.ScaledFitness > snapshot.Scaled.Max {
			snapshot.Scaled.Max = c.ScaledFitness
		}
		snapshot.Scaled.Mean += c.ScaledFitness
		scaledCount++

		if c.EvaluationFailed || c.RawFitness == nil {
			continue
		}
		for i, v := range c.RawFitness {
			if i >= len(snapshot.Raw) {
				snapshot.Raw = append(snapshot.Raw, model.ComponentStats{Min: v, Max: v})
				rawCounts = append(rawCounts, 0)
			}
			comp := &snapshot.Raw[i]
			if rawCounts[i] == 0 {
				comp.Min, comp.Max = v, v
			}
			if v < comp.Min {
				comp.Min = v
			}
			if v > comp.Max {
				comp.Max = v
			}
			comp.Mean += v
			rawCounts[i]++
		}
	}
	if scaledCount > 0 {
		snapshot.Scaled.Mean /= float64(scaledCount)
	}
	for i := range snapshot.Raw {
		if rawCounts[i] > 0 {
			snapshot.Raw[i].Mean /= float64(rawCounts[i])
		}
	}
	return snapshot
}

// Encode serializes the snapshot sequence as one opaque blob.
func (t *Tracker) Encode() ([]byte, error) {
	return json.Marshal(t.snapshots)
}

// Decode rebuilds a tracker from a blob written by Encode.
func Decode(data []byte) (*Tracker, error) {
	var snapshots []model.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("decode progress blob: %w", err)
	}
	for _, s := range snapshots {
		if s.SchemaVersion != currentSchemaVersion || s.CodecVersion != currentCodecVersion {
			return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, s.SchemaVersion, s.CodecVersion)
		}
	}
	return Restore(snapshots), nil
}

// Dump publishes the progress blob atomically at path.
func (t *Tracker) Dump(path string) error {
	data, err := t.Encode()
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := workdir.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("dump progress: %w", err)
	}
	return nil
}

// LoadTracker reads a progress blob written by Dump.
func LoadTracker(path string) (*Tracker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", path, err)
	}
	return Decode(data)
}
