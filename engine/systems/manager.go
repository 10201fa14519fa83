package systems

import (
	"context"
	"time"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
)

type SystemManagerDeps struct {
	Models       assets.ModelLoader
	Environments assets.EnvironmentLoader
	Scene        *scene.Scene
	Camera       *components.Camera
	Renderer     CompositeRenderer
	UI           ProgressUI
	Events       *core.EventSystem
	// Clock defaults to wall-clock time.
	Clock *core.Clock
}

// SystemManager wires the loading and per-frame systems around one event loop.
type SystemManager struct {
	Loop            *core.Loop
	Telemetry       *Telemetry
	Orchestrator    *LoadOrchestrator
	AnimationDriver *AnimationDriver
	RenderLoop      *RenderLoop
}

// NewSystemManager builds the systems and starts loading everything in config.
func NewSystemManager(ctx context.Context, config OrchestratorConfig, deps SystemManagerDeps) (*SystemManager, error) {
	sm := &SystemManager{
		Loop: core.NewLoop(),
	}

	tel, err := NewTelemetry(func() int {
		if sm.Orchestrator == nil {
			return 0
		}
		return sm.Orchestrator.Live().Len()
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	sm.Telemetry = tel

	o, err := NewLoadOrchestrator(ctx, config, OrchestratorDeps{
		Models:       deps.Models,
		Environments: deps.Environments,
		Scene:        deps.Scene,
		Loop:         sm.Loop,
		UI:           deps.UI,
		Events:       deps.Events,
		Telemetry:    tel,
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	sm.Orchestrator = o
	sm.AnimationDriver = NewAnimationDriver(o.Live())
	sm.RenderLoop = NewRenderLoop(sm.Loop, deps.Clock, sm.AnimationDriver, deps.Renderer, deps.Scene, deps.Camera, tel)

	return sm, nil
}

/**
 * @brief Runs one frame. Should happen once an update cycle.
 */
func (sm *SystemManager) Frame() (time.Duration, error) {
	return sm.RenderLoop.Frame()
}

// Settled reports whether every load has finished and its result was drained.
func (sm *SystemManager) Settled() bool {
	select {
	case <-sm.Orchestrator.Settled():
		return sm.Loop.Pending() == 0
	default:
		return false
	}
}

// Shutdown waits up to timeout for in-flight loads to wind down. Loads are
// aborted through the context handed to NewSystemManager.
func (sm *SystemManager) Shutdown(timeout time.Duration) error {
	select {
	case <-sm.Orchestrator.Settled():
	case <-time.After(timeout):
		core.LogWarn("loads still in flight after %s, leaving them behind", timeout)
	}
	// run whatever the loaders posted last so nothing is left half applied
	sm.Loop.RunPending()
	return nil
}
