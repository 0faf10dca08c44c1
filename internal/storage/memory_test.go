package storage

import (
	"context"
	"testing"
	"time"

	"goartm/internal/model"
)

func testRun(id string, startedAt time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: model.CurrentSchemaVersion, CodecVersion: model.CurrentCodecVersion},
		ID:               id,
		Mode:             model.RunModeOffline,
		Passes:           2,
		Batches:          3,
		Synchronizations: 2,
		Topics:           10,
		StartedAt:        startedAt,
		FinishedAt:       startedAt.Add(time.Second),
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := testRun("run-1", time.Unix(100, 0))
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if loaded.Mode != model.RunModeOffline || loaded.Synchronizations != 2 {
		t.Fatalf("unexpected run: %+v", loaded)
	}
}

func TestMemoryStoreListRunsOrderedByStart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, testRun("later", time.Unix(200, 0))); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("earlier", time.Unix(100, 0))); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "earlier" || runs[1].ID != "later" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestMemoryStoreScoreTracksRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.ScoreTrackRecord{{
		Name: "perp",
		Kind: model.ScorePerplexity,
		Samples: []model.ScoreSample{
			{Placeholder: true},
			{Value: model.ScoreValue{Scalar: 42}},
		},
	}}
	if err := store.SaveScoreTracks(ctx, "run-1", input); err != nil {
		t.Fatalf("save tracks: %v", err)
	}

	tracks, ok, err := store.GetScoreTracks(ctx, "run-1")
	if err != nil {
		t.Fatalf("get tracks: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted tracks")
	}
	if len(tracks) != 1 || len(tracks[0].Samples) != 2 {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
	if !tracks[0].Samples[0].Placeholder || tracks[0].Samples[1].Value.Scalar != 42 {
		t.Fatalf("unexpected samples: %+v", tracks[0].Samples)
	}

	if _, ok, err := store.GetScoreTracks(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}
