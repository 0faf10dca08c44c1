// Package engine defines the narrow command interface this layer uses to
// drive the native topic-modeling engine. All inference math, batch
// serialization and document-level parallelism live behind this interface.
package engine

import (
	"context"

	"goartm/internal/model"
)

// Model slots the engine maintains during a training cycle.
const (
	SlotPwt    = "pwt"     // running token-by-topic model
	SlotNwt    = "nwt"     // merged counter accumulator
	SlotNwtHat = "nwt_hat" // freshly processed update
	SlotRwt    = "rwt"     // regularized update
)

// MasterConfig carries the two settings the engine tracks directly.
type MasterConfig struct {
	Processors int // 0 lets the engine pick
	CacheTheta bool
}

// ParseCollectionRequest asks the engine to convert a raw corpus into batch
// artifacts under TargetFolder, producing a corpus-wide frequency dictionary
// as a side effect.
type ParseCollectionRequest struct {
	DataPath       string
	CollectionName string
	TargetFolder   string
	BatchSize      int
	Format         model.DataFormat
}

// InitializeModelRequest seeds the model topology. BatchesPath takes
// priority over DictionaryName when both are set.
type InitializeModelRequest struct {
	ModelName      string
	TopicCount     int
	TopicNames     []string
	BatchesPath    string
	DictionaryName string
}

type ProcessBatchesRequest struct {
	Pwt               string
	Batches           []string
	NwtOut            string
	ThetaRegularizers []model.Regularizer
	InnerPasses       int
	ClassWeights      map[string]float64
	ResetScores       bool
	FindTheta         bool
}

type PhiInfo struct {
	Tokens     []string
	TopicNames []string
}

type ThetaInfo struct {
	ItemIDs    []int
	TopicNames []string
}

// ProcessResult carries the theta matrix (documents x topics) when the
// request asked for it.
type ProcessResult struct {
	Theta  ThetaInfo
	Matrix [][]float64
}

type MergeModelRequest struct {
	Sources    map[string]float64 // model slot -> merge weight
	NwtOut     string
	TopicNames []string
}

type RegularizeModelRequest struct {
	Pwt             string
	Nwt             string
	RwtOut          string
	PhiRegularizers []model.Regularizer
}

type NormalizeModelRequest struct {
	Nwt    string
	RwtIn  string
	PwtOut string
}

type PhiMatrixRequest struct {
	Model      string
	TopicNames []string // nil means all topics
	ClassIDs   []string // nil means all class ids
}

type ThetaMatrixRequest struct {
	Model      string
	TopicNames []string
	ClearCache bool
}

// Engine is the command surface of one native engine instance. A session
// owns its engine exclusively and calls are never made concurrently.
type Engine interface {
	Reconfigure(ctx context.Context, cfg MasterConfig) error

	ParseCollection(ctx context.Context, req ParseCollectionRequest) error
	ImportDictionary(ctx context.Context, path, name string) error
	DisposeDictionary(ctx context.Context, name string) error

	CreateRegularizer(ctx context.Context, reg model.Regularizer) error
	DisposeRegularizer(ctx context.Context, name string) error
	CreateScore(ctx context.Context, modelName string, score model.Score) error
	DisposeScore(ctx context.Context, modelName, name string) error

	InitializeModel(ctx context.Context, req InitializeModelRequest) error
	ProcessBatches(ctx context.Context, req ProcessBatchesRequest) (ProcessResult, error)
	MergeModel(ctx context.Context, req MergeModelRequest) error
	RegularizeModel(ctx context.Context, req RegularizeModelRequest) error
	NormalizeModel(ctx context.Context, req NormalizeModelRequest) error

	PhiInfo(ctx context.Context, modelName string) (PhiInfo, error)
	PhiMatrix(ctx context.Context, req PhiMatrixRequest) ([][]float64, error)
	ThetaInfo(ctx context.Context, modelName string) (ThetaInfo, error)
	ThetaMatrix(ctx context.Context, req ThetaMatrixRequest) ([][]float64, error)
	ScoreValue(ctx context.Context, modelName, scoreName string) (model.ScoreValue, error)

	ExportModel(ctx context.Context, modelName, path string) error
	ImportModel(ctx context.Context, modelName, path string) error

	Close() error
}
