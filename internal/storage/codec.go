package storage

import (
	"encoding/json"
	"errors"

	"github.com/austin-mroz/stk/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRunRecord(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRunRecord(data []byte) (model.RunRecord, error) {
	var record model.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return record, nil
}

func EncodeProgress(snapshots []model.ProgressSnapshot) ([]byte, error) {
	return json.Marshal(snapshots)
}

func DecodeProgress(data []byte) ([]model.ProgressSnapshot, error) {
	var snapshots []model.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	for _, snapshot := range snapshots {
		if err := checkVersion(snapshot.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

func EncodeGenerationStats(stats []model.GenerationStats) ([]byte, error) {
	return json.Marshal(stats)
}

func DecodeGenerationStats(data []byte) ([]model.GenerationStats, error) {
	var stats []model.GenerationStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
