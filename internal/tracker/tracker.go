// Package tracker keeps one ordered history per score name, index-aligned
// with the session's synchronization counter. Tracks that appear late are
// back-filled with placeholder samples so every track always has exactly one
// entry per completed synchronization.
package tracker

import (
	"sort"

	"goartm/internal/model"
)

// Observation is one freshly sampled engine-side score value.
type Observation struct {
	Kind  model.ScoreKind
	Value model.ScoreValue
}

// Track is the append-only history of one score.
type Track struct {
	name    string
	kind    model.ScoreKind
	samples []model.ScoreSample
}

func (t *Track) Name() string { return t.name }

func (t *Track) Kind() model.ScoreKind { return t.kind }

func (t *Track) Len() int { return len(t.samples) }

// Samples returns a copy of the raw history. Placeholder entries mark
// synchronizations that completed before the score existed.
func (t *Track) Samples() []model.ScoreSample {
	return append([]model.ScoreSample(nil), t.samples...)
}

// Last returns the most recent non-placeholder value.
func (t *Track) Last() (model.ScoreValue, bool) {
	for i := len(t.samples) - 1; i >= 0; i-- {
		if !t.samples[i].Placeholder {
			return t.samples[i].Value, true
		}
	}
	return model.ScoreValue{}, false
}

// Registry owns all tracks of one session.
type Registry struct {
	tracks map[string]*Track
}

func NewRegistry() *Registry {
	return &Registry{tracks: make(map[string]*Track)}
}

// Record appends one sample per observed score for the synchronization with
// the given 1-based index. Scores seen for the first time get a new track
// back-filled with syncIndex-1 placeholders first, so afterwards every track
// has exactly syncIndex entries.
func (r *Registry) Record(observations map[string]Observation, syncIndex int) {
	names := make([]string, 0, len(observations))
	for name := range observations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		obs := observations[name]
		track, ok := r.tracks[name]
		if !ok {
			track = &Track{name: name, kind: obs.Kind}
			for i := 0; i < syncIndex-1; i++ {
				track.samples = append(track.samples, model.ScoreSample{Placeholder: true})
			}
			r.tracks[name] = track
		}
		track.samples = append(track.samples, model.ScoreSample{Value: obs.Value})
	}
}

func (r *Registry) Track(name string) (*Track, bool) {
	track, ok := r.tracks[name]
	return track, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tracks))
	for name := range r.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.tracks) }

// Records exports all tracks in name order for persistence.
func (r *Registry) Records() []model.ScoreTrackRecord {
	records := make([]model.ScoreTrackRecord, 0, len(r.tracks))
	for _, name := range r.Names() {
		track := r.tracks[name]
		records = append(records, model.ScoreTrackRecord{
			Name:    track.name,
			Kind:    track.kind,
			Samples: track.Samples(),
		})
	}
	return records
}
