// Package enginetest provides a scripted in-memory engine used by tests.
// The stub records every command it receives so tests can assert on the
// exact call sequence the orchestration layer produced.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"goartm/internal/engine"
	"goartm/internal/model"
)

// DictionaryFileName mirrors the artifact name the native engine writes
// next to parsed batches.
const DictionaryFileName = "dictionary"

type DictionaryImport struct {
	Path string
	Name string
}

// Stub implements engine.Engine for tests. Zero value is usable; fields are
// read and mutated by the test goroutine only.
type Stub struct {
	// Scripted responses.
	BatchesPerParse int // batch files materialized per ParseCollection, default 2
	Scores          map[string]model.ScoreValue
	Theta           engine.ThetaInfo
	ThetaData       [][]float64 // documents x topics
	PhiData         [][]float64 // tokens x topics
	Tokens          []string

	// Injected failures.
	ReconfigureErr error
	ParseErr       error
	ImportDictErr  error
	InitErr        error
	ProcessErr     error
	MergeErr       error
	RegularizeErr  error
	NormalizeErr   error
	ScoreErr       error
	ExportErr      error
	ImportErr      error

	// Recorded calls.
	ReconfigureCalls  []engine.MasterConfig
	ParseCalls        []engine.ParseCollectionRequest
	ImportedDicts     []DictionaryImport
	DisposedDicts     []string
	CreatedRegs       []model.Regularizer
	DisposedRegs      []string
	CreatedScores     []model.Score
	DisposedScores    []string
	InitCalls         []engine.InitializeModelRequest
	ProcessCalls      []engine.ProcessBatchesRequest
	MergeCalls        []engine.MergeModelRequest
	RegularizeCalls   []engine.RegularizeModelRequest
	NormalizeCalls    []engine.NormalizeModelRequest
	ExportedPaths     []string
	ImportedPaths     []string
	CloseCount        int

	models map[string]engine.PhiInfo
}

var _ engine.Engine = (*Stub)(nil)

func (s *Stub) Reconfigure(_ context.Context, cfg engine.MasterConfig) error {
	s.ReconfigureCalls = append(s.ReconfigureCalls, cfg)
	return s.ReconfigureErr
}

// ParseCollection materializes fake batch artifacts and a dictionary file
// into the target folder, the way the native parser does.
func (s *Stub) ParseCollection(_ context.Context, req engine.ParseCollectionRequest) error {
	s.ParseCalls = append(s.ParseCalls, req)
	if s.ParseErr != nil {
		return s.ParseErr
	}
	count := s.BatchesPerParse
	if count <= 0 {
		count = 2
	}
	for i := 0; i < count; i++ {
		name := filepath.Join(req.TargetFolder, fmt.Sprintf("parsed_%03d.batch", i))
		if err := os.WriteFile(name, []byte{}, 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(req.TargetFolder, DictionaryFileName), []byte{}, 0o644)
}

func (s *Stub) ImportDictionary(_ context.Context, path, name string) error {
	if s.ImportDictErr != nil {
		return s.ImportDictErr
	}
	s.ImportedDicts = append(s.ImportedDicts, DictionaryImport{Path: path, Name: name})
	return nil
}

func (s *Stub) DisposeDictionary(_ context.Context, name string) error {
	s.DisposedDicts = append(s.DisposedDicts, name)
	return nil
}

func (s *Stub) CreateRegularizer(_ context.Context, reg model.Regularizer) error {
	s.CreatedRegs = append(s.CreatedRegs, reg)
	return nil
}

func (s *Stub) DisposeRegularizer(_ context.Context, name string) error {
	s.DisposedRegs = append(s.DisposedRegs, name)
	return nil
}

func (s *Stub) CreateScore(_ context.Context, _ string, score model.Score) error {
	s.CreatedScores = append(s.CreatedScores, score)
	return nil
}

func (s *Stub) DisposeScore(_ context.Context, _ string, name string) error {
	s.DisposedScores = append(s.DisposedScores, name)
	return nil
}

func (s *Stub) InitializeModel(_ context.Context, req engine.InitializeModelRequest) error {
	s.InitCalls = append(s.InitCalls, req)
	if s.InitErr != nil {
		return s.InitErr
	}
	names := append([]string(nil), req.TopicNames...)
	if len(names) == 0 {
		// Engine-assigned topic names.
		for i := 0; i < req.TopicCount; i++ {
			names = append(names, fmt.Sprintf("topic_%d", i))
		}
	}
	if s.models == nil {
		s.models = make(map[string]engine.PhiInfo)
	}
	s.models[req.ModelName] = engine.PhiInfo{
		Tokens:     append([]string(nil), s.Tokens...),
		TopicNames: names,
	}
	return nil
}

func (s *Stub) ProcessBatches(_ context.Context, req engine.ProcessBatchesRequest) (engine.ProcessResult, error) {
	s.ProcessCalls = append(s.ProcessCalls, req)
	if s.ProcessErr != nil {
		return engine.ProcessResult{}, s.ProcessErr
	}
	if !req.FindTheta {
		return engine.ProcessResult{}, nil
	}
	return engine.ProcessResult{Theta: s.Theta, Matrix: s.ThetaData}, nil
}

func (s *Stub) MergeModel(_ context.Context, req engine.MergeModelRequest) error {
	s.MergeCalls = append(s.MergeCalls, req)
	return s.MergeErr
}

func (s *Stub) RegularizeModel(_ context.Context, req engine.RegularizeModelRequest) error {
	s.RegularizeCalls = append(s.RegularizeCalls, req)
	return s.RegularizeErr
}

func (s *Stub) NormalizeModel(_ context.Context, req engine.NormalizeModelRequest) error {
	s.NormalizeCalls = append(s.NormalizeCalls, req)
	return s.NormalizeErr
}

func (s *Stub) PhiInfo(_ context.Context, modelName string) (engine.PhiInfo, error) {
	info, ok := s.models[modelName]
	if !ok {
		return engine.PhiInfo{}, fmt.Errorf("model not found: %s", modelName)
	}
	return info, nil
}

func (s *Stub) PhiMatrix(_ context.Context, req engine.PhiMatrixRequest) ([][]float64, error) {
	if s.PhiData != nil {
		return s.PhiData, nil
	}
	info, ok := s.models[req.Model]
	if !ok {
		return nil, fmt.Errorf("model not found: %s", req.Model)
	}
	matrix := make([][]float64, len(info.Tokens))
	for i := range matrix {
		matrix[i] = make([]float64, len(info.TopicNames))
	}
	return matrix, nil
}

func (s *Stub) ThetaInfo(_ context.Context, _ string) (engine.ThetaInfo, error) {
	return s.Theta, nil
}

func (s *Stub) ThetaMatrix(_ context.Context, _ engine.ThetaMatrixRequest) ([][]float64, error) {
	return s.ThetaData, nil
}

func (s *Stub) ScoreValue(_ context.Context, _ string, scoreName string) (model.ScoreValue, error) {
	if s.ScoreErr != nil {
		return model.ScoreValue{}, s.ScoreErr
	}
	return s.Scores[scoreName], nil
}

// ExportModel writes the model's phi info as JSON so a later ImportModel can
// reproduce topic configuration, mimicking the opaque native export.
func (s *Stub) ExportModel(_ context.Context, modelName, path string) error {
	if s.ExportErr != nil {
		return s.ExportErr
	}
	s.ExportedPaths = append(s.ExportedPaths, path)
	info, ok := s.models[modelName]
	if !ok {
		return fmt.Errorf("model not found: %s", modelName)
	}
	payload, err := json.Marshal(exportedModel{Tokens: info.Tokens, TopicNames: info.TopicNames})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func (s *Stub) ImportModel(_ context.Context, modelName, path string) error {
	if s.ImportErr != nil {
		return s.ImportErr
	}
	s.ImportedPaths = append(s.ImportedPaths, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var exported exportedModel
	if err := json.Unmarshal(data, &exported); err != nil {
		return err
	}
	if s.models == nil {
		s.models = make(map[string]engine.PhiInfo)
	}
	s.models[modelName] = engine.PhiInfo{Tokens: exported.Tokens, TopicNames: exported.TopicNames}
	return nil
}

func (s *Stub) Close() error {
	s.CloseCount++
	return nil
}

type exportedModel struct {
	Tokens     []string `json:"tokens"`
	TopicNames []string `json:"topic_names"`
}
