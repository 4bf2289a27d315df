package storage

import (
	"encoding/json"
	"errors"

	"dendra/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeSnapshot(s model.TreeSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (model.TreeSnapshot, error) {
	var snapshot model.TreeSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.TreeSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.TreeSnapshot{}, err
	}
	return snapshot, nil
}

func EncodeEpochHistory(history []model.EpochReport) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeEpochHistory(data []byte) ([]model.EpochReport, error) {
	var history []model.EpochReport
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
