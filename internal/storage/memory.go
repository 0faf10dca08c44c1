package storage

import (
	"context"
	"sort"
	"sync"

	"goartm/internal/model"
)

type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]model.RunRecord
	tracks map[string][]model.ScoreTrackRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[string]model.RunRecord),
		tracks: make(map[string][]model.ScoreTrackRecord),
	}
}

// Init clears the store.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.tracks = make(map[string][]model.ScoreTrackRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *MemoryStore) SaveScoreTracks(_ context.Context, runID string, tracks []model.ScoreTrackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks[runID] = append([]model.ScoreTrackRecord(nil), tracks...)
	return nil
}

func (s *MemoryStore) GetScoreTracks(_ context.Context, runID string) ([]model.ScoreTrackRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks, ok := s.tracks[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.ScoreTrackRecord(nil), tracks...), true, nil
}
