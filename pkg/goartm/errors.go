package goartm

import (
	"errors"

	"goartm/internal/batches"
)

var (
	// ErrInvalidConfiguration is returned by setters and constructors for
	// out-of-range values.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrModelNotInitialized guards operations that need a trained or
	// initialized model.
	ErrModelNotInitialized = errors.New("model is not initialized; call Initialize, FitOffline or FitOnline first")

	// ErrThetaNotCached is returned by FitTransform when the session was
	// built with theta caching disabled.
	ErrThetaNotCached = errors.New("theta matrix is not cached; enable CacheTheta")

	// ErrSessionClosed is returned once the engine handle was disposed.
	ErrSessionClosed = errors.New("session is closed")

	// Batch resolution errors, re-exported for callers.
	ErrMissingArgument = batches.ErrMissingArgument
	ErrNoBatchesFound  = batches.ErrNoBatchesFound
	ErrUnknownFormat   = batches.ErrUnknownFormat
	ErrNotSupported    = batches.ErrNotSupported
)
