package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Candidate is one solution in the population: an opaque structural payload
// plus fitness and provenance bookkeeping. The payload's meaning belongs to
// the problem domain; the engine only hashes, stores and forwards it.
type Candidate struct {
	VersionedRecord
	Identity         string    `json:"identity"`
	Payload          []byte    `json:"payload"`
	Refined          bool      `json:"refined"`
	RawFitness       []float64 `json:"raw_fitness,omitempty"`
	ScaledFitness    float64   `json:"scaled_fitness"`
	Scaled           bool      `json:"scaled"`
	EvaluationFailed bool      `json:"evaluation_failed"`
	Generation       int       `json:"generation"`
	ParentIdentities []string  `json:"parent_identities,omitempty"`
}

// Fingerprint derives the stable structural identity of a payload. Equal
// payloads yield equal identities across process restarts.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// NewCandidate builds a candidate for a payload, deriving its identity.
func NewCandidate(payload []byte, generation int, parents ...string) Candidate {
	return Candidate{
		VersionedRecord:  VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		Identity:         Fingerprint(payload),
		Payload:          append([]byte(nil), payload...),
		Generation:       generation,
		ParentIdentities: append([]string(nil), parents...),
	}
}

// Clone returns a deep copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	out.Payload = append([]byte(nil), c.Payload...)
	if c.RawFitness != nil {
		out.RawFitness = append([]float64(nil), c.RawFitness...)
	}
	if c.ParentIdentities != nil {
		out.ParentIdentities = append([]string(nil), c.ParentIdentities...)
	}
	return out
}

// WithRawFitness returns a copy carrying a fresh raw fitness vector. The
// scaled score is invalidated: it only holds between a normalization pass
// and the next raw-fitness change.
func (c Candidate) WithRawFitness(raw []float64) Candidate {
	out := c.Clone()
	out.RawFitness = append([]float64(nil), raw...)
	out.EvaluationFailed = false
	out.ScaledFitness = 0
	out.Scaled = false
	return out
}

// WithEvaluationFailed returns a copy marked as failed. Failure is distinct
// from "evaluated but poor": the candidate carries no raw fitness at all.
func (c Candidate) WithEvaluationFailed() Candidate {
	out := c.Clone()
	out.RawFitness = nil
	out.EvaluationFailed = true
	out.ScaledFitness = 0
	out.Scaled = false
	return out
}

// Evaluated reports whether the candidate needs no further fitness work:
// either it carries a raw fitness vector or its evaluation already failed.
func (c Candidate) Evaluated() bool {
	return c.EvaluationFailed || c.RawFitness != nil
}

// Less orders candidates for reporting and survival: scaled fitness
// descending, ties broken by identity ascending so equal-fitness candidates
// keep a reproducible order.
func (c Candidate) Less(other Candidate) bool {
	if c.ScaledFitness != other.ScaledFitness {
		return c.ScaledFitness > other.ScaledFitness
	}
	return c.Identity < other.Identity
}

// GenerationStats is one per-generation diagnostics record.
type GenerationStats struct {
	Generation     int     `json:"generation"`
	BestScaled     float64 `json:"best_scaled"`
	MeanScaled     float64 `json:"mean_scaled"`
	MinScaled      float64 `json:"min_scaled"`
	PopulationSize int     `json:"population_size"`
	FailedCount    int     `json:"failed_count"`
	Duplicates     int     `json:"duplicates_collapsed"`
}

// ComponentStats holds min/max/mean for one fitness component.
type ComponentStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// ProgressSnapshot records the population summary at the after-selection
// checkpoint of one generation. Snapshots are append-only.
type ProgressSnapshot struct {
	VersionedRecord
	Generation int              `json:"generation"`
	Scaled     ComponentStats   `json:"scaled"`
	Raw        []ComponentStats `json:"raw,omitempty"`
}

// RunRecord summarizes one engine run for the run store.
type RunRecord struct {
	VersionedRecord
	RunID          string  `json:"run_id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Domain         string  `json:"domain"`
	Seed           int64   `json:"seed"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	CompletedGens  int     `json:"completed_generations"`
	BestScaled     float64 `json:"best_scaled"`
	ExitedEarly    bool    `json:"exited_early"`
}
