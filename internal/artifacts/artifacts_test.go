package artifacts

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"goartm/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	base := t.TempDir()
	run := model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: model.CurrentSchemaVersion, CodecVersion: model.CurrentCodecVersion},
		ID:               "run-1",
		Mode:             model.RunModeOffline,
		Synchronizations: 2,
		StartedAt:        time.Unix(100, 0).UTC(),
	}
	tracks := []model.ScoreTrackRecord{{
		Name: "perp",
		Kind: model.ScorePerplexity,
		Samples: []model.ScoreSample{
			{Placeholder: true},
			{Value: model.ScoreValue{Scalar: 42.5}},
		},
	}}

	runDir, err := WriteRunArtifacts(base, run, tracks)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir != filepath.Join(base, "run-1") {
		t.Fatalf("unexpected run dir: %s", runDir)
	}
	for _, name := range []string{"run.json", "score_tracks.json", "score_tracks.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	file, err := os.Open(filepath.Join(runDir, "score_tracks.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("csv rows: got %d want 3", len(rows))
	}
	if rows[1][3] != "true" || rows[1][4] != "" {
		t.Fatalf("expected placeholder row, got %v", rows[1])
	}
	if rows[2][4] != "42.5" {
		t.Fatalf("expected value row, got %v", rows[2])
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), model.RunRecord{}, nil); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestRunIndexAppendAndReplace(t *testing.T) {
	base := t.TempDir()

	entries, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %+v", entries)
	}

	if err := AppendRunIndex(base, RunIndexEntry{RunID: "a", Mode: "offline", CreatedAtUTC: "2026-01-02T00:00:00Z"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendRunIndex(base, RunIndexEntry{RunID: "b", Mode: "online", CreatedAtUTC: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendRunIndex(base, RunIndexEntry{RunID: "a", Mode: "offline", Synchronizations: 5, CreatedAtUTC: "2026-01-02T00:00:00Z"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	entries, err = ListRunIndex(base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d want 2: %+v", len(entries), entries)
	}
	if entries[0].RunID != "b" || entries[1].RunID != "a" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].Synchronizations != 5 {
		t.Fatalf("expected replaced entry, got %+v", entries[1])
	}
}
