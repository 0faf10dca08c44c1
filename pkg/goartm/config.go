package goartm

import (
	"context"
	"fmt"

	"goartm/internal/config"
	"goartm/internal/engine"
	"goartm/internal/model"
	"goartm/internal/storage"
)

// NewFromConfig builds a session from a declarative configuration: store
// backend, topology, regularizer and score collections. The returned model
// owns the store; Close it with storage.CloseIfSupported when done.
func NewFromConfig(ctx context.Context, eng engine.Engine, cfg config.Config) (*Model, error) {
	store, err := storage.NewStore(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	m, err := New(ctx, eng, Options{
		Processors:     cfg.Processors,
		Topics:         cfg.Topics,
		TopicNames:     cfg.TopicNames,
		ClassWeights:   cfg.ClassWeights,
		DocumentPasses: cfg.DocumentPasses,
		CacheTheta:     cfg.CacheTheta,
		Store:          store,
	})
	if err != nil {
		return nil, err
	}

	for _, reg := range cfg.Regularizers {
		err := m.AddRegularizer(ctx, model.Regularizer{
			Name: reg.Name,
			Kind: model.RegularizerKind(reg.Kind),
			Tau:  reg.Tau,
		})
		if err != nil {
			return nil, fmt.Errorf("regularizer %s: %w", reg.Name, err)
		}
	}
	for _, score := range cfg.Scores {
		kind, err := model.ParseScoreKind(score.Kind)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", score.Name, err)
		}
		if err := m.AddScore(ctx, model.Score{Name: score.Name, Kind: kind}); err != nil {
			return nil, fmt.Errorf("score %s: %w", score.Name, err)
		}
	}
	return m, nil
}
