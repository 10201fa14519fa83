package systems

import (
	"time"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
)

// CompositeRenderer is the externally supplied renderer with its passes.
type CompositeRenderer interface {
	Render(s *scene.Scene, camera *components.Camera, deltaTime float64) error
}

// FrameRunner is the loop owner's side of core.Loop.
type FrameRunner interface {
	RunPending() int
}

/**
 * @brief The per-frame driver. A frame drains the callbacks posted by the
 * loaders, advances the animations by the wall-clock delta (0 on the first
 * frame) and hands the scene to the renderer.
 */
type RenderLoop struct {
	loop      FrameRunner
	clock     *core.Clock
	driver    *AnimationDriver
	renderer  CompositeRenderer
	scene     *scene.Scene
	camera    *components.Camera
	metrics   *core.FrameMetrics
	telemetry *Telemetry
}

func NewRenderLoop(loop FrameRunner, clock *core.Clock, driver *AnimationDriver, renderer CompositeRenderer, s *scene.Scene, camera *components.Camera, telemetry *Telemetry) *RenderLoop {
	if clock == nil {
		clock = core.NewClock()
	}
	return &RenderLoop{
		loop:      loop,
		clock:     clock,
		driver:    driver,
		renderer:  renderer,
		scene:     s,
		camera:    camera,
		metrics:   core.NewFrameMetrics(),
		telemetry: telemetry,
	}
}

// Frame runs one frame and returns the delta it used.
func (rl *RenderLoop) Frame() (time.Duration, error) {
	if rl.loop != nil {
		rl.loop.RunPending()
	}

	delta := rl.clock.Tick()
	if rl.driver != nil {
		rl.driver.Tick(delta)
	}

	if err := rl.renderer.Render(rl.scene, rl.camera, delta.Seconds()); err != nil {
		return delta, err
	}
	rl.metrics.Update(delta)
	rl.telemetry.FrameRendered()
	return delta, nil
}

func (rl *RenderLoop) Metrics() *core.FrameMetrics {
	return rl.metrics
}

// ResetClock makes the next frame a first frame again (delta 0), used when
// rendering resumes after a suspension.
func (rl *RenderLoop) ResetClock() {
	rl.clock.Start()
}
