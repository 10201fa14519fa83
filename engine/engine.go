package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/spaghettifunk/showroom/engine/platform"
	"github.com/spaghettifunk/showroom/engine/renderer"
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/spaghettifunk/showroom/engine/systems"
	"github.com/spaghettifunk/showroom/engine/ui"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

const (
	targetFrameTime  = time.Second / 60
	suspendedPoll    = 100 * time.Millisecond
	shutdownDeadline = 2 * time.Second
)

var ErrNoApplicationConfig = errors.New("game has no application config")

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	running      atomic.Bool
	isSuspended  bool

	ctx    context.Context
	cancel context.CancelFunc

	events        *core.EventSystem
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	renderer      *renderer.Renderer
	scene         *scene.Scene
	camera        *components.Camera
	systemManager *systems.SystemManager

	width  uint32
	height uint32
	frames uint64

	shutdownOnce sync.Once
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, ErrNoApplicationConfig
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	level, err := core.ParseLogLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	core.SetLogLevel(level)

	events := core.Events()
	p, err := platform.New(events, config.Headless)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	am, err := assets.NewAssetManager(assets.NewDefaultTransport())
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	backend := g.Backend
	if backend == nil {
		backend = renderer.NewHeadlessBackend()
	}
	if g.ProgressUI == nil {
		g.ProgressUI = ui.NewProgressBar(os.Stdout, "Loading", ui.DefaultBarWidth)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		ctx:          ctx,
		cancel:       cancel,
		events:       events,
		platform:     p,
		assetManager: am,
		renderer:     renderer.New(backend, config.PixelRatio),
		scene:        scene.NewScene(),
		width:        config.Window.Width,
		height:       config.Window.Height,
	}
	e.running.Store(true)
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.config

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e.onResized)
	e.events.Register(core.EVENT_CODE_LOADING_COMPLETE, e.onEvent)

	if err := e.platform.Startup(config.Window.Name, config.Window.X, config.Window.Y, config.Window.Width, config.Window.Height); err != nil {
		return err
	}
	e.width, e.height = e.platform.FramebufferSize()

	if err := e.assetManager.Initialize(config.AssetsDir); err != nil {
		return err
	}

	// renderer and its passes
	shadowType, err := config.ShadowMapType()
	if err != nil {
		return err
	}
	e.renderer.Shadows = renderer.ShadowSettings{Enabled: config.Shadows.Enabled, Type: shadowType}
	if err := e.renderer.Initialize(config.Window.Name, e.width, e.height); err != nil {
		core.LogError("failed to initialize the renderer: %s", err)
		return err
	}
	if bloom := config.Postprocessing.Bloom; bloom.Enabled {
		e.renderer.AddBloom(bloom.Strength, bloom.Radius, bloom.Threshold)
	}
	if config.Postprocessing.SMAA {
		e.renderer.AddSMAA()
	}

	e.camera = components.NewPerspectiveCamera(config.Camera.FOV, 1, config.Camera.Near, config.Camera.Far)
	e.camera.SetAspect(e.width, e.height)
	pos := config.Camera.Position
	e.camera.SetPosition(math.NewVec3(pos[0], pos[1], pos[2]))

	for _, l := range config.Lights {
		e.scene.AddLight(l.Position[0], l.Position[1], l.Position[2], l.LightIntensity())
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	specs, err := config.LoadSpecs()
	if err != nil {
		return err
	}
	sm, err := systems.NewSystemManager(e.ctx, systems.OrchestratorConfig{
		Objects:            specs,
		EnvironmentPath:    config.Environment.Path,
		ShowEnvironment:    config.Environment.Show,
		MaxConcurrentLoads: config.MaxConcurrentLoads,
	}, systems.SystemManagerDeps{
		Models:       e.assetManager,
		Environments: e.assetManager,
		Scene:        e.scene,
		Camera:       e.camera,
		Renderer:     e.renderer,
		UI:           e.gameInstance.ProgressUI,
		Events:       e.events,
	})
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Runs frames until the application quits, the frame limit is hit or,
 * with ExitWhenLoaded, every load has settled.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrEngineNotReady
	}
	e.currentStage = EngineStageRunning

	for e.running.Load() {
		if !e.platform.PumpMessages() {
			break
		}

		if e.isSuspended {
			// nothing to draw; still wake up for posted work and window events
			select {
			case <-e.systemManager.Loop.Wake():
			case <-time.After(suspendedPoll):
			}
			e.systemManager.Loop.RunPending()
			if e.config.ExitWhenLoaded && e.systemManager.Settled() {
				core.LogInfo("all loads settled while suspended")
				break
			}
			continue
		}

		frameStart := e.platform.GetAbsoluteTime()
		delta, err := e.systemManager.Frame()
		if err != nil {
			core.LogError("frame failed, shutting down: %s", err)
			return err
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta.Seconds()); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				return err
			}
		}

		e.frames++
		if e.config.FrameLimit > 0 && e.frames >= e.config.FrameLimit {
			core.LogInfo("frame limit of %d reached", e.config.FrameLimit)
			break
		}
		if e.config.ExitWhenLoaded && e.systemManager.Settled() {
			core.LogInfo("all loads settled after %d frame(s)", e.frames)
			break
		}

		// Give the rest of the frame back to the OS.
		if remaining := targetFrameTime - (e.platform.GetAbsoluteTime() - frameStart); remaining > 0 && !e.platform.Headless() {
			time.Sleep(remaining)
		}
	}

	fps, frameMS := e.systemManager.RenderLoop.Metrics().Frame()
	core.LogInfo("rendered %d frame(s), %.0f fps, %.2f ms/frame", e.frames, fps, frameMS)
	return nil
}

// Stop asks Run to return after the current frame. Safe from any goroutine.
func (e *Engine) Stop() {
	e.running.Store(false)
}

func (e *Engine) Shutdown() error {
	var errs []error
	e.shutdownOnce.Do(func() {
		e.currentStage = EngineStageShuttingDown
		e.cancel()

		if e.systemManager != nil {
			errs = append(errs, e.systemManager.Shutdown(shutdownDeadline))
		}
		if e.gameInstance.FnShutdown != nil {
			errs = append(errs, e.gameInstance.FnShutdown())
		}
		errs = append(errs,
			core.EventSystemShutdown(),
			e.assetManager.Shutdown(),
			e.renderer.Shutdown(),
			e.platform.Shutdown(),
		)
		e.currentStage = EngineStageShutdown
	})
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Scene() *scene.Scene {
	return e.scene
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) Suspended() bool {
	return e.isSuspended
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	case core.EVENT_CODE_LOADING_COMPLETE:
		if e.systemManager != nil {
			core.LogInfo("scene ready: %d object(s) loaded", e.systemManager.Orchestrator.Live().Len())
		}
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width, height := se.WindowWidth, se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
		if e.systemManager != nil {
			e.systemManager.RenderLoop.ResetClock()
		}
	}

	if e.camera != nil {
		e.camera.SetAspect(width, height)
	}
	e.renderer.SetSize(width, height)
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("%s", err)
		}
	}
	return false
}
