// Package artifacts writes recorded runs and score tracks to disk in a
// reviewable layout: one directory per run plus a shared index file.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"goartm/internal/model"
)

const runIndexFile = "run_index.json"

type RunIndexEntry struct {
	RunID            string `json:"run_id"`
	Mode             string `json:"mode"`
	Passes           int    `json:"passes,omitempty"`
	Batches          int    `json:"batches"`
	Synchronizations int    `json:"synchronizations"`
	Topics           int    `json:"topics"`
	CreatedAtUTC     string `json:"created_at_utc"`
}

// WriteRunArtifacts materializes one run's record and score tracks under
// baseDir/<runID>/ and returns that directory.
func WriteRunArtifacts(baseDir string, run model.RunRecord, tracks []model.ScoreTrackRecord) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "score_tracks.json"), tracks); err != nil {
		return "", err
	}
	if err := writeTracksCSV(filepath.Join(runDir, "score_tracks.csv"), tracks); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC < entries[j].CreatedAtUTC
	})
	return entries, nil
}

// writeTracksCSV flattens all tracks into long form: one row per
// (score, synchronization) pair. Placeholder rows carry an empty value.
func writeTracksCSV(path string, tracks []model.ScoreTrackRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"score", "kind", "synchronization", "placeholder", "value"}); err != nil {
		return err
	}
	for _, track := range tracks {
		for i, sample := range track.Samples {
			row := []string{
				track.Name,
				string(track.Kind),
				strconv.Itoa(i + 1),
				strconv.FormatBool(sample.Placeholder),
				"",
			}
			if !sample.Placeholder {
				row[4] = strconv.FormatFloat(sample.Value.Scalar, 'g', -1, 64)
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
