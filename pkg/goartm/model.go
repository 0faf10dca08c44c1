// Package goartm is a control-plane facade over a native additive
// regularized topic modeling engine. The session configures the engine,
// converts raw corpora into engine-native batches, drives offline and
// online training loops and extracts the resulting matrices as labeled
// tables. All inference math stays inside the engine.
package goartm

import (
	"context"
	"fmt"
	"sort"

	"goartm/internal/engine"
	"goartm/internal/model"
	"goartm/internal/storage"
	"goartm/internal/tracker"
)

const (
	DefaultTopics         = 10
	DefaultDocumentPasses = 10

	defaultBatchSize = 1000

	// The running model's slot name inside the engine.
	modelName = engine.SlotPwt
)

// Options configures a new session. Zero values fall back to defaults;
// TopicNames wins over Topics when both are set.
type Options struct {
	Processors     int // 0 lets the engine pick
	Topics         int
	TopicNames     []string
	ClassWeights   map[string]float64 // empty means "use all classes"
	DocumentPasses int
	CacheTheta     *bool // default true
	Store          storage.Store
}

// Model is one topic-model session. It owns its engine handle exclusively;
// callers must serialize operations on a session — no internal locking is
// provided.
type Model struct {
	eng   engine.Engine
	store storage.Store

	processors     int
	topics         int
	topicNames     []string
	classWeights   map[string]float64
	documentPasses int
	cacheTheta     bool

	regularizers map[string]model.Regularizer
	scores       map[string]model.Score
	tracker      *tracker.Registry

	initialized bool
	syncs       int
	lastRunID   string
	closed      bool
}

// New builds a session and configures the engine with the settings it
// tracks directly (processor count, theta caching).
func New(ctx context.Context, eng engine.Engine, opts Options) (*Model, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidConfiguration)
	}
	if opts.Processors < 0 {
		return nil, fmt.Errorf("%w: processor count must be non-negative", ErrInvalidConfiguration)
	}
	if opts.Topics < 0 {
		return nil, fmt.Errorf("%w: topic count must be non-negative", ErrInvalidConfiguration)
	}
	if opts.DocumentPasses < 0 {
		return nil, fmt.Errorf("%w: document pass count must be non-negative", ErrInvalidConfiguration)
	}
	if err := validateTopicNames(opts.TopicNames); err != nil {
		return nil, err
	}

	m := &Model{
		eng:            eng,
		store:          opts.Store,
		processors:     opts.Processors,
		topics:         DefaultTopics,
		documentPasses: DefaultDocumentPasses,
		cacheTheta:     true,
		classWeights:   copyWeights(opts.ClassWeights),
		regularizers:   make(map[string]model.Regularizer),
		scores:         make(map[string]model.Score),
		tracker:        tracker.NewRegistry(),
	}
	if len(opts.TopicNames) > 0 {
		m.topicNames = append([]string(nil), opts.TopicNames...)
		m.topics = len(opts.TopicNames)
	} else if opts.Topics > 0 {
		m.topics = opts.Topics
	}
	if opts.DocumentPasses > 0 {
		m.documentPasses = opts.DocumentPasses
	}
	if opts.CacheTheta != nil {
		m.cacheTheta = *opts.CacheTheta
	}

	err := eng.Reconfigure(ctx, engine.MasterConfig{
		Processors: m.processors,
		CacheTheta: m.cacheTheta,
	})
	if err != nil {
		return nil, fmt.Errorf("configure engine: %w", err)
	}
	return m, nil
}

// Close disposes the engine handle. The session is unusable afterwards.
func (m *Model) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.eng.Close()
}

func (m *Model) guard() error {
	if m.closed {
		return ErrSessionClosed
	}
	return nil
}

// ========== Properties ==========

func (m *Model) Processors() int { return m.processors }

func (m *Model) Topics() int { return m.topics }

func (m *Model) TopicNames() []string {
	return append([]string(nil), m.topicNames...)
}

func (m *Model) ClassWeights() map[string]float64 {
	return copyWeights(m.classWeights)
}

func (m *Model) DocumentPasses() int { return m.documentPasses }

func (m *Model) CacheTheta() bool { return m.cacheTheta }

func (m *Model) Initialized() bool { return m.initialized }

// Synchronizations reports how many merge cycles have completed since the
// last Initialize or Load.
func (m *Model) Synchronizations() int { return m.syncs }

// LastRunID is the identifier of the most recently persisted run; empty
// when no store is attached or no fit call has completed.
func (m *Model) LastRunID() string { return m.lastRunID }

// ========== Setters ==========

// SetProcessors live-reconfigures the engine's processor pool size.
func (m *Model) SetProcessors(ctx context.Context, n int) error {
	if err := m.guard(); err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("%w: processor count must be a positive integer", ErrInvalidConfiguration)
	}
	err := m.eng.Reconfigure(ctx, engine.MasterConfig{Processors: n, CacheTheta: m.cacheTheta})
	if err != nil {
		return err
	}
	m.processors = n
	return nil
}

// SetCacheTheta live-reconfigures theta caching in the engine.
func (m *Model) SetCacheTheta(ctx context.Context, cache bool) error {
	if err := m.guard(); err != nil {
		return err
	}
	err := m.eng.Reconfigure(ctx, engine.MasterConfig{Processors: m.processors, CacheTheta: cache})
	if err != nil {
		return err
	}
	m.cacheTheta = cache
	return nil
}

func (m *Model) SetDocumentPasses(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: document pass count must be a positive integer", ErrInvalidConfiguration)
	}
	m.documentPasses = n
	return nil
}

// SetTopics sets the topic count. When topic names are fixed the count must
// agree with them.
func (m *Model) SetTopics(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: topic count must be a positive integer", ErrInvalidConfiguration)
	}
	if len(m.topicNames) > 0 && n != len(m.topicNames) {
		return fmt.Errorf("%w: topic count %d conflicts with %d topic names", ErrInvalidConfiguration, n, len(m.topicNames))
	}
	m.topics = n
	return nil
}

// SetTopicNames replaces the topic names; the topic count follows.
func (m *Model) SetTopicNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: topic names must be non-empty", ErrInvalidConfiguration)
	}
	if err := validateTopicNames(names); err != nil {
		return err
	}
	m.topicNames = append([]string(nil), names...)
	m.topics = len(names)
	return nil
}

func (m *Model) SetClassWeights(weights map[string]float64) {
	m.classWeights = copyWeights(weights)
}

// ========== Regularizers and scores ==========

// AddRegularizer registers a regularizer with the engine and attaches it to
// the session. Theta-kind regularizers run during per-document inner
// iterations, phi-kind once per synchronization.
func (m *Model) AddRegularizer(ctx context.Context, reg model.Regularizer) error {
	if err := m.guard(); err != nil {
		return err
	}
	if reg.Name == "" {
		return fmt.Errorf("%w: regularizer name is required", ErrMissingArgument)
	}
	if !reg.Kind.Valid() {
		return fmt.Errorf("%w: regularizer kind %q", ErrInvalidConfiguration, reg.Kind)
	}
	if err := m.eng.CreateRegularizer(ctx, reg); err != nil {
		return err
	}
	m.regularizers[reg.Name] = reg
	return nil
}

func (m *Model) RemoveRegularizer(ctx context.Context, name string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if _, ok := m.regularizers[name]; !ok {
		return nil
	}
	if err := m.eng.DisposeRegularizer(ctx, name); err != nil {
		return err
	}
	delete(m.regularizers, name)
	return nil
}

func (m *Model) Regularizers() []model.Regularizer {
	list := make([]model.Regularizer, 0, len(m.regularizers))
	for _, reg := range m.regularizers {
		list = append(list, reg)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// AddScore registers a diagnostic score; the engine owns its accumulator
// and this layer samples it once per synchronization.
func (m *Model) AddScore(ctx context.Context, score model.Score) error {
	if err := m.guard(); err != nil {
		return err
	}
	if score.Name == "" {
		return fmt.Errorf("%w: score name is required", ErrMissingArgument)
	}
	if !score.Kind.Valid() {
		return fmt.Errorf("%w: score kind %q", ErrInvalidConfiguration, score.Kind)
	}
	if err := m.eng.CreateScore(ctx, modelName, score); err != nil {
		return err
	}
	m.scores[score.Name] = score
	return nil
}

func (m *Model) RemoveScore(ctx context.Context, name string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if _, ok := m.scores[name]; !ok {
		return nil
	}
	if err := m.eng.DisposeScore(ctx, modelName, name); err != nil {
		return err
	}
	delete(m.scores, name)
	return nil
}

func (m *Model) Scores() []model.Score {
	list := make([]model.Score, 0, len(m.scores))
	for _, score := range m.scores {
		list = append(list, score)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ScoreHistory returns the raw track of one score, one sample per completed
// synchronization. Placeholder samples mark synchronizations that finished
// before the score existed.
func (m *Model) ScoreHistory(name string) ([]model.ScoreSample, bool) {
	track, ok := m.tracker.Track(name)
	if !ok {
		return nil, false
	}
	return track.Samples(), true
}

// TrackedScores lists score names with recorded history.
func (m *Model) TrackedScores() []string {
	return m.tracker.Names()
}

// ========== helpers ==========

func (m *Model) splitRegularizers() (theta, phi []model.Regularizer) {
	for _, reg := range m.Regularizers() {
		if reg.Kind == model.RegularizerTheta {
			theta = append(theta, reg)
		} else {
			phi = append(phi, reg)
		}
	}
	return theta, phi
}

func (m *Model) resetHistory() {
	m.tracker = tracker.NewRegistry()
	m.syncs = 0
}

func validateTopicNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: topic names must be non-empty", ErrInvalidConfiguration)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate topic name %q", ErrInvalidConfiguration, name)
		}
		seen[name] = true
	}
	return nil
}

func copyWeights(weights map[string]float64) map[string]float64 {
	copied := make(map[string]float64, len(weights))
	for class, weight := range weights {
		copied[class] = weight
	}
	return copied
}
