package systems

import (
	"context"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/core"
)

// EnvironmentLoadTask loads the environment map against EnvironmentSlot.
type EnvironmentLoadTask struct {
	Path   string
	loader assets.EnvironmentLoader
	sink   ProgressSink
}

func NewEnvironmentLoadTask(path string, loader assets.EnvironmentLoader, sink ProgressSink) *EnvironmentLoadTask {
	return &EnvironmentLoadTask{Path: path, loader: loader, sink: sink}
}

// Run returns the decoded map or an *core.EnvironmentLoadError.
func (t *EnvironmentLoadTask) Run(ctx context.Context) (*loaders.EnvironmentMap, error) {
	if t.Path == "" {
		return nil, &core.EnvironmentLoadError{Path: t.Path, Err: core.ErrEmptyAssetPath}
	}
	env, err := t.loader.LoadEnvironment(ctx, t.Path, func(loaded, total int64) {
		if t.sink == nil {
			return
		}
		if pct, ok := percentOf(loaded, total); ok {
			t.sink(EnvironmentSlot, pct)
		}
	})
	if err != nil {
		return nil, &core.EnvironmentLoadError{Path: t.Path, Err: err}
	}
	return env, nil
}
