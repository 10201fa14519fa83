package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSlot       = errors.New("unknown progress slot")
	ErrUnsupportedFormat = errors.New("unsupported asset format")
	ErrEmptyAssetPath    = errors.New("empty asset path")
	ErrInvalidScale      = errors.New("scale factor must be a finite number >= 0")
	ErrEngineNotReady    = errors.New("engine not initialized")
	ErrUnknown           = errors.New("unknown")
)

// AssetLoadError is returned when a model could not be fetched or parsed.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("failed to load asset %q: %v", e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// EnvironmentLoadError is the AssetLoadError counterpart for the environment map.
type EnvironmentLoadError struct {
	Path string
	Err  error
}

func (e *EnvironmentLoadError) Error() string {
	return fmt.Sprintf("failed to load environment map %q: %v", e.Path, e.Err)
}

func (e *EnvironmentLoadError) Unwrap() error {
	return e.Err
}
