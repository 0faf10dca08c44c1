package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
processors: 4
topic_names: [economy, sports, science]
class_weights:
  "@default_class": 1.0
  "@labels": 5.0
document_passes: 10
cache_theta: true
store:
  kind: memory
regularizers:
  - name: sparse_theta
    kind: theta
    tau: -0.5
  - name: decorrelator
    kind: phi
    tau: 100000
scores:
  - name: perp
    kind: perplexity
  - name: top
    kind: top_tokens
`

func TestLoadValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Processors != 4 || len(cfg.TopicNames) != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CacheTheta == nil || !*cfg.CacheTheta {
		t.Fatal("expected cache_theta true")
	}
	if cfg.ClassWeights["@labels"] != 5.0 {
		t.Fatalf("unexpected class weights: %v", cfg.ClassWeights)
	}
	if len(cfg.Regularizers) != 2 || cfg.Regularizers[0].Tau != -0.5 {
		t.Fatalf("unexpected regularizers: %+v", cfg.Regularizers)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("topics: 5\nnum_procesors: 2\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsBadScoreKind(t *testing.T) {
	_, err := Parse([]byte("scores:\n  - name: x\n    kind: coherence\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsDuplicateTopicNames(t *testing.T) {
	_, err := Parse([]byte("topic_names: [a, a]\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsBadRegularizerKind(t *testing.T) {
	_, err := Parse([]byte("regularizers:\n  - name: r\n    kind: gamma\n    tau: 1\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsUnknownStoreKind(t *testing.T) {
	_, err := Parse([]byte("store:\n  kind: postgres\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
