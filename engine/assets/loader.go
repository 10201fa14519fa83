package assets

import (
	"context"

	"github.com/spaghettifunk/showroom/engine/assets/loaders"
)

// ModelLoader fetches and parses a scene asset, reporting transfer progress.
type ModelLoader interface {
	LoadModel(ctx context.Context, path string, onProgress ProgressFunc) (*loaders.Model, error)
}

// EnvironmentLoader fetches and decodes an environment map. Same progress
// contract as ModelLoader; environment maps carry no animations.
type EnvironmentLoader interface {
	LoadEnvironment(ctx context.Context, path string, onProgress ProgressFunc) (*loaders.EnvironmentMap, error)
}
