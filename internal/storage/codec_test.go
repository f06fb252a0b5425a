package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austin-mroz/stk/internal/model"
)

func TestRunRecordCodecRoundTrip(t *testing.T) {
	in := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		RunID:           "r1",
		CreatedAtUTC:    "2026-08-31T12:00:00Z",
		Domain:          "vector",
		Seed:            42,
		PopulationSize:  8,
		Generations:     20,
		CompletedGens:   20,
		BestScaled:      3.5,
	}

	data, err := EncodeRunRecord(in)
	require.NoError(t, err)

	out, err := DecodeRunRecord(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRunRecordRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeRunRecord([]byte(`{"schema_version":9,"codec_version":1,"run_id":"r1"}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, err = DecodeRunRecord([]byte(`{bad`))
	assert.Error(t, err)
}

func TestProgressCodecRoundTrip(t *testing.T) {
	in := []model.ProgressSnapshot{
		{
			VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
			Generation:      0,
			Scaled:          model.ComponentStats{Min: 1, Max: 4, Mean: 2.5},
		},
	}

	data, err := EncodeProgress(in)
	require.NoError(t, err)

	out, err := DecodeProgress(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeProgress([]byte(`[{"schema_version":0,"codec_version":0}]`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestGenerationStatsCodecRoundTrip(t *testing.T) {
	in := []model.GenerationStats{
		{Generation: 1, BestScaled: 4, MeanScaled: 2.5, MinScaled: 1, PopulationSize: 4, Duplicates: 2},
	}

	data, err := EncodeGenerationStats(in)
	require.NoError(t, err)

	out, err := DecodeGenerationStats(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
