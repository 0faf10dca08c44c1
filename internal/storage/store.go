package storage

import (
	"context"

	"goartm/internal/model"
)

// Store persists run records and their score tracks. Attaching a store to a
// session is optional; training semantics never depend on it.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveScoreTracks(ctx context.Context, runID string, tracks []model.ScoreTrackRecord) error
	GetScoreTracks(ctx context.Context, runID string) ([]model.ScoreTrackRecord, bool, error)
}
