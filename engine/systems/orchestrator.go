package systems

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/scene"
)

var (
	ErrNoModelLoader       = errors.New("objects requested without a model loader")
	ErrNoEnvironmentLoader = errors.New("environment requested without an environment loader")
	ErrNoScene             = errors.New("orchestrator needs a scene")
	ErrNoLoop              = errors.New("orchestrator needs an event loop")
)

// LiveSet holds the objects inserted into the scene, in insertion order.
type LiveSet struct {
	mu      sync.RWMutex
	objects []*LoadedObject
}

func (ls *LiveSet) Add(obj *LoadedObject) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.objects = append(ls.objects, obj)
}

// Snapshot returns a copy that later insertions do not affect.
func (ls *LiveSet) Snapshot() []*LoadedObject {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make([]*LoadedObject, len(ls.objects))
	copy(out, ls.objects)
	return out
}

func (ls *LiveSet) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.objects)
}

type OrchestratorConfig struct {
	Objects         []LoadSpec
	EnvironmentPath string
	// ShowEnvironment also uses the environment map as the scene background.
	ShowEnvironment bool
	// MaxConcurrentLoads caps in-flight loads. 0 means one worker per load.
	MaxConcurrentLoads int
}

type OrchestratorDeps struct {
	Models       assets.ModelLoader
	Environments assets.EnvironmentLoader
	Scene        *scene.Scene
	Loop         core.Poster
	UI           ProgressUI
	// Events defaults to the process-wide event system.
	Events    *core.EventSystem
	Telemetry *Telemetry
}

/**
 * @brief Starts every load at construction and inserts the results into the
 * scene as they arrive, in whatever order that is. Loads run on a JobSystem;
 * everything touching the progress table, the live set or the scene is
 * posted to the event loop.
 */
type LoadOrchestrator struct {
	ctx       context.Context
	config    OrchestratorConfig
	scene     *scene.Scene
	loop      core.Poster
	events    *core.EventSystem
	telemetry *Telemetry

	progress *ProgressAggregator
	live     *LiveSet
	jobs     *JobSystem

	pending sync.WaitGroup
	settled chan struct{}

	// written on the loop only
	failures    []error
	environment *loaders.EnvironmentMap
}

// NewLoadOrchestrator validates its collaborators and starts loading right
// away. Load failures never surface here; they are logged and reported
// through events.
func NewLoadOrchestrator(ctx context.Context, config OrchestratorConfig, deps OrchestratorDeps) (*LoadOrchestrator, error) {
	if len(config.Objects) > 0 && deps.Models == nil {
		return nil, ErrNoModelLoader
	}
	if config.EnvironmentPath != "" && deps.Environments == nil {
		return nil, ErrNoEnvironmentLoader
	}
	if deps.Scene == nil {
		return nil, ErrNoScene
	}
	if deps.Loop == nil {
		return nil, ErrNoLoop
	}
	if deps.Events == nil {
		deps.Events = core.Events()
	}

	withEnv := config.EnvironmentPath != ""
	total := len(config.Objects)
	if withEnv {
		total++
	}

	o := &LoadOrchestrator{
		ctx:       ctx,
		config:    config,
		scene:     deps.Scene,
		loop:      deps.Loop,
		events:    deps.Events,
		telemetry: deps.Telemetry,
		progress:  NewProgressAggregator(len(config.Objects), withEnv, deps.UI),
		live:      &LiveSet{},
		settled:   make(chan struct{}),
	}
	o.progress.OnHidden(func() {
		core.LogInfo("loading complete (%d%%)", o.progress.Percentage())
		o.events.Fire(core.EventContext{Type: core.EVENT_CODE_LOADING_COMPLETE, Data: o.progress.Percentage()})
	})

	if total == 0 {
		// nothing to wait for: publish once so the UI hides
		o.loop.Post(o.progress.Publish)
		close(o.settled)
		return o, nil
	}

	workers := total
	if config.MaxConcurrentLoads > 0 && config.MaxConcurrentLoads < total {
		workers = config.MaxConcurrentLoads
	}
	jobs, err := NewJobSystem(workers, total)
	if err != nil {
		return nil, err
	}
	o.jobs = jobs
	o.pending.Add(total)

	core.LogInfo("loading %d object(s) on %d worker(s), environment: %t", len(config.Objects), workers, withEnv)
	for i, spec := range config.Objects {
		o.submitAsset(NewAssetLoadTask(spec, i, deps.Models, o.postProgress))
	}
	if withEnv {
		o.submitEnvironment(NewEnvironmentLoadTask(config.EnvironmentPath, deps.Environments, o.postProgress))
	}

	go func() {
		o.pending.Wait()
		_ = o.jobs.Shutdown()
		close(o.settled)
	}()

	return o, nil
}

func (o *LoadOrchestrator) postProgress(slot int, percentage float64) {
	o.loop.Post(func() {
		if err := o.progress.Update(slot, percentage); err != nil {
			core.LogWarn("ignoring progress update: %s", err)
		}
	})
}

func (o *LoadOrchestrator) submitAsset(task *AssetLoadTask) {
	var obj *LoadedObject
	o.telemetry.LoadStarted("model")

	err := o.jobs.Submit(JobTask{
		Name: task.Spec.AssetPath,
		OnStart: func() error {
			var err error
			obj, err = task.Run(o.ctx)
			return err
		},
		OnComplete: func() {
			o.loop.Post(func() { o.insert(obj) })
		},
		OnFailure: func(err error) {
			o.loop.Post(func() { o.assetFailed(err) })
		},
		OnCompletionCallback: o.pending.Done,
	})
	if err != nil {
		o.pending.Done()
		core.LogError("could not schedule '%s': %s", task.Spec.AssetPath, err)
	}
}

func (o *LoadOrchestrator) submitEnvironment(task *EnvironmentLoadTask) {
	var env *loaders.EnvironmentMap
	start := time.Now()
	o.telemetry.LoadStarted("environment")

	err := o.jobs.Submit(JobTask{
		Name: task.Path,
		OnStart: func() error {
			var err error
			env, err = task.Run(o.ctx)
			return err
		},
		OnComplete: func() {
			took := time.Since(start)
			o.loop.Post(func() { o.applyEnvironment(env, took) })
		},
		OnFailure: func(err error) {
			o.loop.Post(func() { o.environmentFailed(err) })
		},
		OnCompletionCallback: o.pending.Done,
	})
	if err != nil {
		o.pending.Done()
		core.LogError("could not schedule '%s': %s", task.Path, err)
	}
}

// insert adds obj to the live set and the scene in one loop callback.
func (o *LoadOrchestrator) insert(obj *LoadedObject) {
	o.live.Add(obj)
	o.scene.Add(obj.Node)

	core.LogInfo("loaded '%s' (%s, %d mesh(es), %d animation(s)) in %s",
		obj.Spec.AssetPath, humanize.Bytes(uint64(obj.ByteSize)), obj.MeshCount, len(obj.Animations), obj.LoadTime.Round(time.Millisecond))
	o.telemetry.LoadCompleted("model", obj.ByteSize, obj.LoadTime)
	o.events.Fire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOADED, Data: obj})
}

func (o *LoadOrchestrator) assetFailed(err error) {
	o.failures = append(o.failures, err)
	core.LogError("%s", err)
	o.telemetry.LoadFailed("model")

	var loadErr *core.AssetLoadError
	if errors.As(err, &loadErr) {
		o.events.Fire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOAD_FAILED, Data: loadErr})
	}
}

func (o *LoadOrchestrator) applyEnvironment(env *loaders.EnvironmentMap, took time.Duration) {
	o.environment = env
	o.scene.SetEnvironment(env)
	if o.config.ShowEnvironment {
		o.scene.SetBackground(env)
	}

	core.LogInfo("environment '%s' applied (%dx%d, %s)", o.config.EnvironmentPath, env.Width, env.Height, humanize.Bytes(uint64(env.ByteSize)))
	o.telemetry.LoadCompleted("environment", env.ByteSize, took)
	o.events.Fire(core.EventContext{Type: core.EVENT_CODE_ENVIRONMENT_LOADED, Data: env})
}

func (o *LoadOrchestrator) environmentFailed(err error) {
	o.failures = append(o.failures, err)
	core.LogError("%s", err)
	o.telemetry.LoadFailed("environment")
	o.events.Fire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOAD_FAILED, Data: err})
}

func (o *LoadOrchestrator) Live() *LiveSet {
	return o.live
}

func (o *LoadOrchestrator) Progress() *ProgressAggregator {
	return o.progress
}

// Failures lists the load errors seen so far. Call from the loop.
func (o *LoadOrchestrator) Failures() []error {
	out := make([]error, len(o.failures))
	copy(out, o.failures)
	return out
}

// Environment is the applied environment map, nil until it arrives. Call from the loop.
func (o *LoadOrchestrator) Environment() *loaders.EnvironmentMap {
	return o.environment
}

// Settled is closed once every load has finished and posted its result.
// The results still have to be drained from the loop.
func (o *LoadOrchestrator) Settled() <-chan struct{} {
	return o.settled
}
