package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// DataFormat identifies the on-disk layout of a training corpus.
type DataFormat string

const (
	FormatBatches      DataFormat = "batches"
	FormatBowUCI       DataFormat = "bow_uci"
	FormatVowpalWabbit DataFormat = "vowpal_wabbit"
	FormatPlainText    DataFormat = "plain_text"
)

// RegularizerKind tells whether a regularizer runs during per-document inner
// iterations (theta) or once per synchronization (phi).
type RegularizerKind string

const (
	RegularizerTheta RegularizerKind = "theta"
	RegularizerPhi   RegularizerKind = "phi"
)

func (k RegularizerKind) Valid() bool {
	switch k {
	case RegularizerTheta, RegularizerPhi:
		return true
	}
	return false
}

// Regularizer is an additive penalty or bonus attached to the model.
type Regularizer struct {
	Name string          `json:"name"`
	Kind RegularizerKind `json:"kind"`
	Tau  float64         `json:"tau"`
}

// ScoreKind enumerates the diagnostics the engine can accumulate.
type ScoreKind string

const (
	ScoreSparsityPhi    ScoreKind = "sparsity_phi"
	ScoreSparsityTheta  ScoreKind = "sparsity_theta"
	ScorePerplexity     ScoreKind = "perplexity"
	ScoreThetaSnippet   ScoreKind = "theta_snippet"
	ScoreItemsProcessed ScoreKind = "items_processed"
	ScoreTopTokens      ScoreKind = "top_tokens"
	ScoreTopicKernel    ScoreKind = "topic_kernel"
)

var ErrUnknownScoreKind = errors.New("unknown score kind")

func ParseScoreKind(s string) (ScoreKind, error) {
	kind := ScoreKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownScoreKind, s)
	}
	return kind, nil
}

func (k ScoreKind) Valid() bool {
	switch k {
	case ScoreSparsityPhi, ScoreSparsityTheta, ScorePerplexity,
		ScoreThetaSnippet, ScoreItemsProcessed, ScoreTopTokens, ScoreTopicKernel:
		return true
	}
	return false
}

// Score is a diagnostic registered on the model; the engine owns the
// accumulator, this layer only samples it.
type Score struct {
	Name string    `json:"name"`
	Kind ScoreKind `json:"kind"`
}

// ScoreValue is one sampled snapshot of an engine-side score accumulator.
// Scalar carries the primary value; Series and Labels carry per-topic or
// per-token breakdowns for the structured kinds.
type ScoreValue struct {
	Scalar float64   `json:"scalar"`
	Series []float64 `json:"series,omitempty"`
	Labels []string  `json:"labels,omitempty"`
}

// ScoreSample is one entry of a score track. Placeholder samples stand in
// for synchronizations completed before the score existed.
type ScoreSample struct {
	Placeholder bool       `json:"placeholder"`
	Value       ScoreValue `json:"value"`
}

// ScoreTrackRecord is the persisted form of one score history track.
type ScoreTrackRecord struct {
	Name    string        `json:"name"`
	Kind    ScoreKind     `json:"kind"`
	Samples []ScoreSample `json:"samples"`
}

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one completed fit call.
type RunRecord struct {
	VersionedRecord
	ID               string     `json:"id"`
	Mode             string     `json:"mode"`
	DataPath         string     `json:"data_path,omitempty"`
	DataFormat       DataFormat `json:"data_format,omitempty"`
	Passes           int        `json:"passes,omitempty"`
	Batches          int        `json:"batches"`
	Synchronizations int        `json:"synchronizations"`
	Topics           int        `json:"topics"`
	DecayWeight      float64    `json:"decay_weight,omitempty"`
	ApplyWeight      float64    `json:"apply_weight,omitempty"`
	Tau0             float64    `json:"tau0,omitempty"`
	Kappa            float64    `json:"kappa,omitempty"`
	UpdateEvery      int        `json:"update_every,omitempty"`
	BatchSize        int        `json:"batch_size,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       time.Time  `json:"finished_at"`
}

const (
	RunModeOffline = "offline"
	RunModeOnline  = "online"
)
