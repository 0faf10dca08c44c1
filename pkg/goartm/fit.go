package goartm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"goartm/internal/batches"
	"goartm/internal/engine"
	"goartm/internal/model"
	"goartm/internal/schedule"
	"goartm/internal/tracker"
)

// FitOfflineOptions configures one offline fit call. Zero Passes means one
// pass; when both weights are zero the defaults decay=0, apply=1 are used.
type FitOfflineOptions struct {
	DataPath         string
	DataFormat       model.DataFormat // default "batches"
	CollectionName   string           // required for bow_uci
	Batches          []string         // explicit batch names under DataPath
	Passes           int
	DecayWeight      float64
	ApplyWeight      float64
	ResetThetaScores bool
	BatchSize        int // batch size for conversion, default 1000
}

// FitOnlineOptions configures one online fit call. Batches are flushed in
// groups of UpdateEvery (plus a final partial group); BatchSize is the
// nominal per-batch document count used only for the weight schedule.
type FitOnlineOptions struct {
	DataPath         string
	DataFormat       model.DataFormat
	CollectionName   string
	Batches          []string
	Tau0             float64 // default 1024
	Kappa            float64 // default 0.7
	UpdateEvery      int     // default 1
	ResetThetaScores bool
	BatchSize        int // default 1000
}

// FitOffline trains the model with the whole collection processed once per
// pass, merging with constant caller-supplied weights.
func (m *Model) FitOffline(ctx context.Context, opts FitOfflineOptions) error {
	if err := m.guard(); err != nil {
		return err
	}
	opts = normalizeFitOffline(opts)
	started := time.Now().UTC()

	target, cleanup, err := m.conversionTarget(opts.DataFormat, opts.DataPath)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := batches.Resolve(ctx, m.eng, batches.Request{
		DataPath:       opts.DataPath,
		Format:         opts.DataFormat,
		CollectionName: opts.CollectionName,
		Names:          opts.Batches,
		BatchSize:      opts.BatchSize,
		TargetFolder:   target,
	})
	if err != nil {
		return err
	}
	if err := m.ensureInitialized(ctx, target); err != nil {
		return err
	}

	thetaRegs, phiRegs := m.splitRegularizers()
	weights := schedule.Offline{Decay: opts.DecayWeight, Apply: opts.ApplyWeight}.Weights()
	for pass := 0; pass < opts.Passes; pass++ {
		if err := m.synchronize(ctx, list, weights, thetaRegs, phiRegs, opts.ResetThetaScores); err != nil {
			return fmt.Errorf("pass %d: %w", pass+1, err)
		}
	}

	return m.recordRun(ctx, model.RunRecord{
		Mode:        model.RunModeOffline,
		DataPath:    opts.DataPath,
		DataFormat:  opts.DataFormat,
		Passes:      opts.Passes,
		Batches:     len(list),
		DecayWeight: opts.DecayWeight,
		ApplyWeight: opts.ApplyWeight,
		StartedAt:   started,
	})
}

// FitOnline trains the model incrementally: every UpdateEvery consecutive
// batches (and the final partial group) trigger one synchronization whose
// weights follow the diminishing learning-rate schedule.
func (m *Model) FitOnline(ctx context.Context, opts FitOnlineOptions) error {
	if err := m.guard(); err != nil {
		return err
	}
	opts = normalizeFitOnline(opts)
	started := time.Now().UTC()

	target, cleanup, err := m.conversionTarget(opts.DataFormat, opts.DataPath)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := batches.Resolve(ctx, m.eng, batches.Request{
		DataPath:       opts.DataPath,
		Format:         opts.DataFormat,
		CollectionName: opts.CollectionName,
		Names:          opts.Batches,
		BatchSize:      opts.BatchSize,
		TargetFolder:   target,
	})
	if err != nil {
		return err
	}
	if err := m.ensureInitialized(ctx, target); err != nil {
		return err
	}

	thetaRegs, phiRegs := m.splitRegularizers()
	sched := &schedule.Online{
		Tau0:        opts.Tau0,
		Kappa:       opts.Kappa,
		BatchSize:   opts.BatchSize,
		UpdateEvery: opts.UpdateEvery,
	}
	var group []string
	for i, batch := range list {
		group = append(group, batch)
		if (i+1)%opts.UpdateEvery != 0 && i+1 != len(list) {
			continue
		}
		weights := sched.Next()
		if err := m.synchronize(ctx, group, weights, thetaRegs, phiRegs, opts.ResetThetaScores); err != nil {
			return fmt.Errorf("batch group ending at %d: %w", i+1, err)
		}
		group = nil
	}

	return m.recordRun(ctx, model.RunRecord{
		Mode:        model.RunModeOnline,
		DataPath:    opts.DataPath,
		DataFormat:  opts.DataFormat,
		Batches:     len(list),
		Tau0:        opts.Tau0,
		Kappa:       opts.Kappa,
		UpdateEvery: opts.UpdateEvery,
		BatchSize:   opts.BatchSize,
		StartedAt:   started,
	})
}

// synchronize runs one process -> merge -> regularize -> normalize cycle and
// records scores. The synchronization counter and tracker advance only
// after every engine call of the cycle has succeeded, so a failed cycle
// leaves counter and tracks consistent.
func (m *Model) synchronize(ctx context.Context, group []string, weights schedule.Weights, thetaRegs, phiRegs []model.Regularizer, resetScores bool) error {
	_, err := m.eng.ProcessBatches(ctx, engine.ProcessBatchesRequest{
		Pwt:               modelName,
		Batches:           group,
		NwtOut:            engine.SlotNwtHat,
		ThetaRegularizers: thetaRegs,
		InnerPasses:       m.documentPasses,
		ClassWeights:      m.classWeights,
		ResetScores:       resetScores,
	})
	if err != nil {
		return fmt.Errorf("process batches: %w", err)
	}

	// The very first synchronization of the session's life merges from the
	// pristine model; every later one merges from the running accumulator.
	source := engine.SlotNwt
	if m.syncs == 0 {
		source = modelName
	}
	err = m.eng.MergeModel(ctx, engine.MergeModelRequest{
		Sources: map[string]float64{
			source:            weights.Decay,
			engine.SlotNwtHat: weights.Apply,
		},
		NwtOut:     engine.SlotNwt,
		TopicNames: m.topicNames,
	})
	if err != nil {
		return fmt.Errorf("merge model: %w", err)
	}

	err = m.eng.RegularizeModel(ctx, engine.RegularizeModelRequest{
		Pwt:             modelName,
		Nwt:             engine.SlotNwt,
		RwtOut:          engine.SlotRwt,
		PhiRegularizers: phiRegs,
	})
	if err != nil {
		return fmt.Errorf("regularize model: %w", err)
	}

	err = m.eng.NormalizeModel(ctx, engine.NormalizeModelRequest{
		Nwt:    engine.SlotNwt,
		RwtIn:  engine.SlotRwt,
		PwtOut: modelName,
	})
	if err != nil {
		return fmt.Errorf("normalize model: %w", err)
	}

	observations := make(map[string]tracker.Observation, len(m.scores))
	for name, score := range m.scores {
		value, err := m.eng.ScoreValue(ctx, modelName, name)
		if err != nil {
			return fmt.Errorf("read score %s: %w", name, err)
		}
		observations[name] = tracker.Observation{Kind: score.Kind, Value: value}
	}

	m.syncs++
	m.tracker.Record(observations, m.syncs)
	return nil
}

// conversionTarget decides where resolved batches live. Non-native formats
// get a temporary folder that is removed, with its contents, when the
// owning call returns — on success and on failure alike.
func (m *Model) conversionTarget(format model.DataFormat, dataPath string) (string, func(), error) {
	if format == model.FormatBatches || format == "" {
		return dataPath, func() {}, nil
	}
	target, err := os.MkdirTemp("", "goartm-batches-")
	if err != nil {
		return "", nil, fmt.Errorf("create conversion folder: %w", err)
	}
	return target, func() { _ = os.RemoveAll(target) }, nil
}

// ensureInitialized performs the implicit first-fit initialization: import
// the frequency dictionary the conversion (or the caller's batches folder)
// provides, initialize from it, and dispose the transient dictionary.
func (m *Model) ensureInitialized(ctx context.Context, folder string) error {
	if m.initialized {
		return nil
	}
	name := batches.DictionaryFile + "-" + uuid.NewString()
	path := filepath.Join(folder, batches.DictionaryFile)
	if err := m.eng.ImportDictionary(ctx, path, name); err != nil {
		return fmt.Errorf("auto-import dictionary: %w", err)
	}
	initErr := m.Initialize(ctx, InitializeOptions{DictionaryName: name})
	if disposeErr := m.eng.DisposeDictionary(ctx, name); initErr == nil && disposeErr != nil {
		return disposeErr
	}
	return initErr
}

// InitializeOptions selects the initialization source. DataPath (a batches
// folder) takes priority over DictionaryName when both are set.
type InitializeOptions struct {
	DataPath       string
	DictionaryName string
}

// Initialize seeds the model topology and resets the synchronization
// counter and all score tracks. Topic names are re-read from the engine
// afterwards; the engine's assignment is authoritative.
func (m *Model) Initialize(ctx context.Context, opts InitializeOptions) error {
	if err := m.guard(); err != nil {
		return err
	}
	if opts.DataPath == "" && opts.DictionaryName == "" {
		return fmt.Errorf("%w: a batches folder or a dictionary name is required", ErrMissingArgument)
	}
	req := engine.InitializeModelRequest{
		ModelName:  modelName,
		TopicCount: m.topics,
		TopicNames: m.topicNames,
	}
	if opts.DataPath != "" {
		req.BatchesPath = opts.DataPath
	} else {
		req.DictionaryName = opts.DictionaryName
	}
	if err := m.eng.InitializeModel(ctx, req); err != nil {
		return fmt.Errorf("initialize model: %w", err)
	}
	return m.adoptEngineTopology(ctx)
}

// LoadDictionary imports a frequency dictionary under the given name.
func (m *Model) LoadDictionary(ctx context.Context, name, path string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: dictionary name", ErrMissingArgument)
	}
	if path == "" {
		return fmt.Errorf("%w: dictionary path", ErrMissingArgument)
	}
	return m.eng.ImportDictionary(ctx, path, name)
}

// RemoveDictionary disposes a previously loaded dictionary.
func (m *Model) RemoveDictionary(ctx context.Context, name string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: dictionary name", ErrMissingArgument)
	}
	return m.eng.DisposeDictionary(ctx, name)
}

// Save exports the trained model. An existing file at path is replaced.
func (m *Model) Save(ctx context.Context, path string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if !m.initialized {
		return ErrModelNotInitialized
	}
	if path == "" {
		return fmt.Errorf("%w: model path", ErrMissingArgument)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("replace %s: %w", path, err)
		}
	}
	return m.eng.ExportModel(ctx, modelName, path)
}

// Load imports a model saved by Save. Topic configuration is overwritten
// from the loaded model and the synchronization counter and score tracks
// are reset.
func (m *Model) Load(ctx context.Context, path string) error {
	if err := m.guard(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: model path", ErrMissingArgument)
	}
	if err := m.eng.ImportModel(ctx, modelName, path); err != nil {
		return fmt.Errorf("import model: %w", err)
	}
	return m.adoptEngineTopology(ctx)
}

func (m *Model) adoptEngineTopology(ctx context.Context) error {
	info, err := m.eng.PhiInfo(ctx, modelName)
	if err != nil {
		return fmt.Errorf("read phi info: %w", err)
	}
	m.topicNames = append([]string(nil), info.TopicNames...)
	m.topics = len(info.TopicNames)
	m.initialized = true
	m.resetHistory()
	return nil
}

// PhiOptions narrows GetPhi to a subset of topics or class ids; nil slices
// mean "all".
type PhiOptions struct {
	TopicNames []string
	ClassIDs   []string
}

// GetPhi returns the token-by-topic probability table: rows are tokens,
// columns are topic names.
func (m *Model) GetPhi(ctx context.Context, opts PhiOptions) (*Table, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.initialized {
		return nil, ErrModelNotInitialized
	}
	info, err := m.eng.PhiInfo(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("read phi info: %w", err)
	}
	matrix, err := m.eng.PhiMatrix(ctx, engine.PhiMatrixRequest{
		Model:      modelName,
		TopicNames: opts.TopicNames,
		ClassIDs:   opts.ClassIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("read phi matrix: %w", err)
	}
	topicNames := opts.TopicNames
	if len(topicNames) == 0 {
		topicNames = info.TopicNames
	}
	return NewTable(info.Tokens, topicNames, matrix)
}

// FitTransformOptions narrows FitTransform. RemoveTheta clears the engine's
// theta cache after extraction.
type FitTransformOptions struct {
	TopicNames  []string
	RemoveTheta bool
}

// FitTransform returns the cached topic-by-document table for the training
// set. It fails with ErrThetaNotCached when the session disabled theta
// caching, regardless of initialization state.
func (m *Model) FitTransform(ctx context.Context, opts FitTransformOptions) (*Table, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.cacheTheta {
		return nil, ErrThetaNotCached
	}
	if !m.initialized {
		return nil, ErrModelNotInitialized
	}
	info, err := m.eng.ThetaInfo(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("read theta info: %w", err)
	}
	topicNames := opts.TopicNames
	if len(topicNames) == 0 {
		topicNames = info.TopicNames
	}
	matrix, err := m.eng.ThetaMatrix(ctx, engine.ThetaMatrixRequest{
		Model:      modelName,
		TopicNames: topicNames,
		ClearCache: opts.RemoveTheta,
	})
	if err != nil {
		return nil, fmt.Errorf("read theta matrix: %w", err)
	}
	return NewTable(topicNames, itemLabels(info.ItemIDs), transpose(matrix, len(topicNames)))
}

// TransformOptions selects the documents to infer against the trained
// model.
type TransformOptions struct {
	DataPath       string
	DataFormat     model.DataFormat
	CollectionName string
	Batches        []string
}

// Transform computes a theta table for new documents without mutating the
// model: a single processing pass with no merge, regularize or normalize.
func (m *Model) Transform(ctx context.Context, opts TransformOptions) (*Table, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.initialized {
		return nil, ErrModelNotInitialized
	}
	if opts.DataFormat == "" {
		opts.DataFormat = model.FormatBatches
	}

	target, cleanup, err := m.conversionTarget(opts.DataFormat, opts.DataPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	list, err := batches.Resolve(ctx, m.eng, batches.Request{
		DataPath:       opts.DataPath,
		Format:         opts.DataFormat,
		CollectionName: opts.CollectionName,
		Names:          opts.Batches,
		BatchSize:      defaultBatchSize,
		TargetFolder:   target,
	})
	if err != nil {
		return nil, err
	}

	result, err := m.eng.ProcessBatches(ctx, engine.ProcessBatchesRequest{
		Pwt:          modelName,
		Batches:      list,
		NwtOut:       engine.SlotNwtHat,
		InnerPasses:  m.documentPasses,
		ClassWeights: m.classWeights,
		FindTheta:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("process batches: %w", err)
	}
	topicNames := result.Theta.TopicNames
	return NewTable(topicNames, itemLabels(result.Theta.ItemIDs), transpose(result.Matrix, len(topicNames)))
}

func (m *Model) recordRun(ctx context.Context, run model.RunRecord) error {
	if m.store == nil {
		return nil
	}
	run.VersionedRecord = model.VersionedRecord{
		SchemaVersion: model.CurrentSchemaVersion,
		CodecVersion:  model.CurrentCodecVersion,
	}
	run.ID = uuid.NewString()
	run.Synchronizations = m.syncs
	run.Topics = m.topics
	run.FinishedAt = time.Now().UTC()
	if err := m.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if err := m.store.SaveScoreTracks(ctx, run.ID, m.tracker.Records()); err != nil {
		return fmt.Errorf("record score tracks: %w", err)
	}
	m.lastRunID = run.ID
	return nil
}

func normalizeFitOffline(opts FitOfflineOptions) FitOfflineOptions {
	if opts.DataFormat == "" {
		opts.DataFormat = model.FormatBatches
	}
	if opts.Passes <= 0 {
		opts.Passes = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.DecayWeight == 0 && opts.ApplyWeight == 0 {
		opts.ApplyWeight = 1
	}
	return opts
}

func normalizeFitOnline(opts FitOnlineOptions) FitOnlineOptions {
	if opts.DataFormat == "" {
		opts.DataFormat = model.FormatBatches
	}
	if opts.Tau0 <= 0 {
		opts.Tau0 = 1024
	}
	if opts.Kappa == 0 {
		opts.Kappa = 0.7
	}
	if opts.UpdateEvery <= 0 {
		opts.UpdateEvery = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return opts
}

// transpose flips a documents-by-topics matrix into topics-by-documents.
func transpose(matrix [][]float64, topics int) [][]float64 {
	flipped := make([][]float64, topics)
	for t := range flipped {
		flipped[t] = make([]float64, len(matrix))
	}
	for d, row := range matrix {
		for t := 0; t < topics && t < len(row); t++ {
			flipped[t][d] = row[t]
		}
	}
	return flipped
}

func itemLabels(ids []int) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = strconv.Itoa(id)
	}
	return labels
}
