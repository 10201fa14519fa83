package systems

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	loop   *core.Loop
	scene  *scene.Scene
	ui     *recordingUI
	events *core.EventSystem
}

func newHarness() *harness {
	return &harness{
		loop:   core.NewLoop(),
		scene:  scene.NewScene(),
		ui:     &recordingUI{},
		events: core.NewEventSystem(),
	}
}

func (h *harness) deps(models *fakeModels, envs *fakeEnvironments) OrchestratorDeps {
	d := OrchestratorDeps{
		Scene:  h.scene,
		Loop:   h.loop,
		UI:     h.ui,
		Events: h.events,
	}
	if models != nil {
		d.Models = models
	}
	if envs != nil {
		d.Environments = envs
	}
	return d
}

// settle waits for every load and drains what they posted.
func (h *harness) settle(t *testing.T, o *LoadOrchestrator) {
	t.Helper()
	select {
	case <-o.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("loads did not settle")
	}
	h.loop.RunPending()
}

func (h *harness) names() []string {
	var out []string
	for _, n := range h.scene.Nodes() {
		out = append(out, n.Name)
	}
	return out
}

func TestOrchestratorLoadsEverything(t *testing.T) {
	h := newHarness()
	models := &fakeModels{models: map[string]fakeModel{
		"a.glb": {ticks: [][2]int64{{50, 100}, {100, 100}}},
		"b.glb": {ticks: [][2]int64{{100, 100}}},
	}}
	envs := &fakeEnvironments{ticks: [][2]int64{{4, 4}}}

	var loaded, envLoaded, complete int
	h.events.Register(core.EVENT_CODE_ASSET_LOADED, func(core.EventContext) bool { loaded++; return false })
	h.events.Register(core.EVENT_CODE_ENVIRONMENT_LOADED, func(core.EventContext) bool { envLoaded++; return false })
	h.events.Register(core.EVENT_CODE_LOADING_COMPLETE, func(core.EventContext) bool { complete++; return false })

	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		Objects:         []LoadSpec{NewLoadSpec("a.glb"), NewLoadSpec("b.glb")},
		EnvironmentPath: "studio.hdr",
		ShowEnvironment: true,
	}, h.deps(models, envs))
	require.NoError(t, err)
	h.settle(t, o)

	assert.Equal(t, 2, o.Live().Len())
	assert.ElementsMatch(t, []string{"a.glb", "b.glb"}, h.names())
	assert.Equal(t, 100, o.Progress().Percentage())
	assert.Equal(t, 100, h.ui.last())
	assert.Equal(t, 1, h.ui.hideCount())
	assert.Empty(t, o.Failures())

	require.NotNil(t, o.Environment())
	assert.Same(t, o.Environment(), h.scene.Environment())
	assert.Same(t, o.Environment(), h.scene.Background())

	assert.Equal(t, 2, loaded)
	assert.Equal(t, 1, envLoaded)
	assert.Equal(t, 1, complete)
}

func TestOrchestratorHiddenEnvironmentIsNotTheBackground(t *testing.T) {
	h := newHarness()
	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		EnvironmentPath: "studio.hdr",
	}, h.deps(nil, &fakeEnvironments{}))
	require.NoError(t, err)
	h.settle(t, o)

	assert.NotNil(t, h.scene.Environment())
	assert.Nil(t, h.scene.Background())
}

func TestOrchestratorFailureDoesNotBlockOthers(t *testing.T) {
	h := newHarness()
	models := &fakeModels{models: map[string]fakeModel{
		"good.glb":   {ticks: [][2]int64{{100, 100}}},
		"broken.glb": {ticks: [][2]int64{{30, 100}}, err: errBoom},
	}}
	var failed []error
	h.events.Register(core.EVENT_CODE_ASSET_LOAD_FAILED, func(ctx core.EventContext) bool {
		failed = append(failed, ctx.Data.(error))
		return true
	})

	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		Objects: []LoadSpec{NewLoadSpec("broken.glb"), NewLoadSpec("good.glb")},
	}, h.deps(models, nil))
	require.NoError(t, err)
	h.settle(t, o)

	assert.Equal(t, []string{"good.glb"}, h.names())
	require.Len(t, o.Failures(), 1)
	require.Len(t, failed, 1)
	var loadErr *core.AssetLoadError
	require.ErrorAs(t, failed[0], &loadErr)
	assert.Equal(t, "broken.glb", loadErr.Path)

	// the failed slot stays where it was, so the UI is never hidden
	v, err := o.Progress().Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, 65, h.ui.last())
	assert.Equal(t, 0, h.ui.hideCount())
}

func TestOrchestratorEnvironmentFailure(t *testing.T) {
	h := newHarness()
	var failed error
	h.events.Register(core.EVENT_CODE_ASSET_LOAD_FAILED, func(ctx core.EventContext) bool {
		failed = ctx.Data.(error)
		return true
	})

	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		EnvironmentPath: "missing.hdr",
	}, h.deps(nil, &fakeEnvironments{err: errBoom}))
	require.NoError(t, err)
	h.settle(t, o)

	var envErr *core.EnvironmentLoadError
	require.ErrorAs(t, failed, &envErr)
	assert.Nil(t, o.Environment())
	assert.Nil(t, h.scene.Environment())
}

func TestOrchestratorInsertsInCompletionOrder(t *testing.T) {
	h := newHarness()
	first := make(chan struct{})
	second := make(chan struct{})
	models := &fakeModels{models: map[string]fakeModel{
		"slow.glb": {gate: second, ticks: [][2]int64{{1, 1}}},
		"fast.glb": {gate: first, ticks: [][2]int64{{1, 1}}},
	}}

	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		Objects: []LoadSpec{NewLoadSpec("slow.glb"), NewLoadSpec("fast.glb")},
	}, h.deps(models, nil))
	require.NoError(t, err)

	close(first)
	require.Eventually(t, func() bool {
		h.loop.RunPending()
		return o.Live().Len() == 1
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []string{"fast.glb"}, h.names())
	assert.False(t, h.ui.hideCount() > 0)

	close(second)
	h.settle(t, o)
	assert.Equal(t, []string{"fast.glb", "slow.glb"}, h.names())
	assert.Equal(t, 1, h.ui.hideCount())
}

func TestOrchestratorConvergesWhateverTheOrder(t *testing.T) {
	for run := 0; run < 5; run++ {
		h := newHarness()
		models := &fakeModels{models: map[string]fakeModel{}}
		var specs []LoadSpec
		for i := 0; i < 6; i++ {
			path := fmt.Sprintf("m%d.glb", i)
			models.models[path] = fakeModel{ticks: [][2]int64{{10, 40}, {20, 40}, {40, 40}}}
			specs = append(specs, NewLoadSpec(path))
		}

		o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
			Objects:            specs,
			MaxConcurrentLoads: 3,
		}, h.deps(models, nil))
		require.NoError(t, err)
		h.settle(t, o)

		assert.Equal(t, 6, o.Live().Len())
		assert.Equal(t, 100, o.Progress().Percentage())
		assert.Equal(t, 1, h.ui.hideCount())
	}
}

func TestOrchestratorWithNothingToLoad(t *testing.T) {
	h := newHarness()
	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{}, h.deps(nil, nil))
	require.NoError(t, err)
	h.settle(t, o)

	assert.Equal(t, 0, o.Live().Len())
	assert.Equal(t, []int{100}, h.ui.values)
	assert.Equal(t, 1, h.ui.hideCount())
}

func TestOrchestratorDoesNotTouchTheSceneOffTheLoop(t *testing.T) {
	h := newHarness()
	models := &fakeModels{models: map[string]fakeModel{"a.glb": {ticks: [][2]int64{{1, 1}}}}}

	o, err := NewLoadOrchestrator(context.Background(), OrchestratorConfig{
		Objects: []LoadSpec{NewLoadSpec("a.glb")},
	}, h.deps(models, nil))
	require.NoError(t, err)

	<-o.Settled()
	assert.Equal(t, 0, o.Live().Len())
	assert.Empty(t, h.scene.Nodes())
	assert.Empty(t, h.ui.values)

	h.loop.RunPending()
	assert.Equal(t, 1, o.Live().Len())
}

func TestOrchestratorRequiresItsCollaborators(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := NewLoadOrchestrator(ctx, OrchestratorConfig{Objects: []LoadSpec{NewLoadSpec("a.glb")}}, h.deps(nil, nil))
	assert.ErrorIs(t, err, ErrNoModelLoader)

	_, err = NewLoadOrchestrator(ctx, OrchestratorConfig{EnvironmentPath: "x.hdr"}, h.deps(nil, nil))
	assert.ErrorIs(t, err, ErrNoEnvironmentLoader)

	d := h.deps(nil, nil)
	d.Scene = nil
	_, err = NewLoadOrchestrator(ctx, OrchestratorConfig{}, d)
	assert.ErrorIs(t, err, ErrNoScene)

	d = h.deps(nil, nil)
	d.Loop = nil
	_, err = NewLoadOrchestrator(ctx, OrchestratorConfig{}, d)
	assert.ErrorIs(t, err, ErrNoLoop)
}

func TestOrchestratorCancelledLoadsFail(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	models := &fakeModels{models: map[string]fakeModel{"a.glb": {gate: make(chan struct{})}}}

	o, err := NewLoadOrchestrator(ctx, OrchestratorConfig{
		Objects: []LoadSpec{NewLoadSpec("a.glb")},
	}, h.deps(models, nil))
	require.NoError(t, err)

	cancel()
	h.settle(t, o)
	require.Len(t, o.Failures(), 1)
	assert.ErrorIs(t, o.Failures()[0], context.Canceled)
}

func TestLiveSetSnapshotIsStable(t *testing.T) {
	ls := &LiveSet{}
	ls.Add(&LoadedObject{})
	snap := ls.Snapshot()
	ls.Add(&LoadedObject{})

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, ls.Len())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ls.Add(&LoadedObject{})
			_ = ls.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ls.Len())
}
