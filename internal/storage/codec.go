package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"goartm/internal/model"
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
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

func EncodeScoreTracks(tracks []model.ScoreTrackRecord) ([]byte, error) {
	return json.Marshal(tracks)
}

func DecodeScoreTracks(data []byte) ([]model.ScoreTrackRecord, error) {
	var tracks []model.ScoreTrackRecord
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != model.CurrentSchemaVersion || record.CodecVersion != model.CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, record.SchemaVersion, record.CodecVersion)
	}
	return nil
}
