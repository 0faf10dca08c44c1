// Package batches translates a (path, format) request into an ordered list
// of engine-native batch files, delegating format conversion to the engine.
package batches

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"goartm/internal/engine"
	"goartm/internal/model"
)

// Suffix is the filename extension of engine-native batch artifacts.
const Suffix = ".batch"

// DictionaryFile is the frequency dictionary the engine writes next to
// parsed batches.
const DictionaryFile = "dictionary"

var (
	ErrNoBatchesFound  = errors.New("no batches found")
	ErrUnknownFormat   = errors.New("unknown data format")
	ErrNotSupported    = errors.New("data format not supported")
	ErrMissingArgument = errors.New("missing argument")
)

// Request describes one batch resolution.
type Request struct {
	DataPath       string
	Format         model.DataFormat
	CollectionName string   // required for bow_uci
	Names          []string // explicit batch file names under DataPath
	BatchSize      int
	TargetFolder   string // conversion output folder; owned by the caller
}

// Resolve returns batch file paths in the order downstream training will
// consume them. Globbed results are sorted lexicographically so online-mode
// weight recomputation sees a deterministic sequence.
func Resolve(ctx context.Context, eng engine.Engine, req Request) ([]string, error) {
	switch req.Format {
	case model.FormatBatches, "":
		return resolveNative(req)
	case model.FormatBowUCI:
		if req.CollectionName == "" {
			return nil, fmt.Errorf("%w: collection name is required for %s", ErrMissingArgument, model.FormatBowUCI)
		}
		return convert(ctx, eng, req)
	case model.FormatVowpalWabbit:
		return convert(ctx, eng, req)
	case model.FormatPlainText:
		return nil, fmt.Errorf("%w: %s", ErrNotSupported, req.Format)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, req.Format)
	}
}

func resolveNative(req Request) ([]string, error) {
	if len(req.Names) > 0 {
		list := make([]string, 0, len(req.Names))
		for _, name := range req.Names {
			list = append(list, filepath.Join(req.DataPath, name))
		}
		return list, nil
	}
	list, err := glob(req.DataPath)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBatchesFound, req.DataPath)
	}
	return list, nil
}

func convert(ctx context.Context, eng engine.Engine, req Request) ([]string, error) {
	err := eng.ParseCollection(ctx, engine.ParseCollectionRequest{
		DataPath:       req.DataPath,
		CollectionName: req.CollectionName,
		TargetFolder:   req.TargetFolder,
		BatchSize:      req.BatchSize,
		Format:         req.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return glob(req.TargetFolder)
}

func glob(folder string) ([]string, error) {
	list, err := filepath.Glob(filepath.Join(folder, "*"+Suffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(list)
	return list, nil
}
