// Package config loads session configuration from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"goartm/internal/model"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the root session configuration.
type Config struct {
	Processors     int                `yaml:"processors"`
	Topics         int                `yaml:"topics"`
	TopicNames     []string           `yaml:"topic_names"`
	ClassWeights   map[string]float64 `yaml:"class_weights"`
	DocumentPasses int                `yaml:"document_passes"`
	// CacheTheta is a pointer to distinguish "not set" from an explicit false.
	CacheTheta *bool `yaml:"cache_theta"`

	Store        StoreConfig         `yaml:"store"`
	Regularizers []RegularizerConfig `yaml:"regularizers"`
	Scores       []ScoreConfig       `yaml:"scores"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type RegularizerConfig struct {
	Name string  `yaml:"name"`
	Kind string  `yaml:"kind"`
	Tau  float64 `yaml:"tau"`
}

type ScoreConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Processors < 0 {
		return fmt.Errorf("%w: processors must be non-negative", ErrInvalidConfig)
	}
	if c.Topics < 0 {
		return fmt.Errorf("%w: topics must be non-negative", ErrInvalidConfig)
	}
	if c.DocumentPasses < 0 {
		return fmt.Errorf("%w: document_passes must be non-negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.TopicNames))
	for _, name := range c.TopicNames {
		if name == "" {
			return fmt.Errorf("%w: topic names must be non-empty", ErrInvalidConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate topic name %q", ErrInvalidConfig, name)
		}
		seen[name] = true
	}
	regNames := make(map[string]bool, len(c.Regularizers))
	for _, reg := range c.Regularizers {
		if reg.Name == "" {
			return fmt.Errorf("%w: regularizer name is required", ErrInvalidConfig)
		}
		if regNames[reg.Name] {
			return fmt.Errorf("%w: duplicate regularizer %q", ErrInvalidConfig, reg.Name)
		}
		regNames[reg.Name] = true
		if !model.RegularizerKind(reg.Kind).Valid() {
			return fmt.Errorf("%w: regularizer %q has unknown kind %q", ErrInvalidConfig, reg.Name, reg.Kind)
		}
	}
	scoreNames := make(map[string]bool, len(c.Scores))
	for _, score := range c.Scores {
		if score.Name == "" {
			return fmt.Errorf("%w: score name is required", ErrInvalidConfig)
		}
		if scoreNames[score.Name] {
			return fmt.Errorf("%w: duplicate score %q", ErrInvalidConfig, score.Name)
		}
		scoreNames[score.Name] = true
		if _, err := model.ParseScoreKind(score.Kind); err != nil {
			return fmt.Errorf("%w: score %q: %v", ErrInvalidConfig, score.Name, err)
		}
	}
	switch c.Store.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	return nil
}
