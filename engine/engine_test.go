package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxGLTF = `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "Box", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]
}`

// one 1x1 pixel, flat scanline
const tinyHDR = "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 1\n\x80\x80\x80\x81"

type progressRecorder struct {
	mu     sync.Mutex
	values []int
	hides  int
}

func (pr *progressRecorder) SetPercentage(p int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.values = append(pr.values, p)
}

func (pr *progressRecorder) Hide() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.hides++
}

func headlessGame(t *testing.T) (*Game, *renderer.HeadlessBackend, *progressRecorder) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "box.gltf"), []byte(boxGLTF), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "studio.hdr"), []byte(tinyHDR), 0o644))

	config := DefaultApplicationConfig()
	config.Headless = true
	config.AssetsDir = dir
	config.ExitWhenLoaded = true
	config.FrameLimit = 100000
	config.Lights = []LightConfig{{Position: [3]float32{5, 5, 5}}}
	config.Environment = EnvironmentConfig{Path: "studio.hdr", Show: true}
	config.Objects = []ObjectConfig{{Path: "box.gltf", Rotation: []float64{0, 90, 0}}}

	backend := renderer.NewHeadlessBackend()
	ui := &progressRecorder{}
	return &Game{ApplicationConfig: config, Backend: backend, ProgressUI: ui}, backend, ui
}

func TestEngineRunsUntilLoaded(t *testing.T) {
	g, backend, ui := headlessGame(t)
	var initialized, resized, updates int
	g.FnInitialize = func() error { initialized++; return nil }
	g.FnOnResize = func(w, h uint32) error { resized++; return nil }
	g.FnUpdate = func(float64) error { updates++; return nil }

	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })

	require.NoError(t, e.Initialize())
	assert.Same(t, e.systemManager, g.SystemManager)
	require.NoError(t, e.Run())

	assert.Equal(t, 1, initialized)
	assert.Equal(t, 1, resized)
	assert.Equal(t, int(e.Frames()), updates)
	assert.Equal(t, e.Frames(), backend.Frames())

	live := g.SystemManager.Orchestrator.Live().Snapshot()
	require.Len(t, live, 1)
	assert.True(t, live[0].Node.CastShadow)
	assert.NotNil(t, e.Scene().Environment())
	assert.NotNil(t, e.Scene().Background())
	assert.Len(t, e.Scene().Lights(), 1)
	assert.Equal(t, 1, ui.hides)

	passes := backend.LastFrame().Passes
	assert.Equal(t, []renderer.PassType{renderer.PassTypeRender, renderer.PassTypeBloom, renderer.PassTypeSMAA}, passes)

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
	// nobody is left listening once the engine is gone
	assert.False(t, core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT}))
	assert.False(t, core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{}}))
}

func TestEngineFrameLimit(t *testing.T) {
	g, _, _ := headlessGame(t)
	g.ApplicationConfig.ExitWhenLoaded = false
	g.ApplicationConfig.FrameLimit = 3

	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())
	assert.Equal(t, uint64(3), e.Frames())
}

func TestEngineQuitEventStopsTheRun(t *testing.T) {
	g, _, _ := headlessGame(t)
	g.ApplicationConfig.ExitWhenLoaded = false
	g.ApplicationConfig.FrameLimit = 0
	g.FnUpdate = func(float64) error {
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())
	assert.Equal(t, uint64(1), e.Frames())
}

func TestEngineResizeUpdatesCameraAndRenderer(t *testing.T) {
	g, backend, _ := headlessGame(t)
	var sizes [][2]uint32
	g.FnOnResize = func(w, h uint32) error {
		sizes = append(sizes, [2]uint32{w, h})
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.NoError(t, e.Initialize())

	e.platform.Resize(0, 0)
	assert.True(t, e.Suspended())

	e.platform.Resize(800, 400)
	assert.False(t, e.Suspended())
	assert.Equal(t, float32(2), e.Camera().Aspect)
	w, h := e.Renderer().Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(400), h)
	bw, bh := backend.Size()
	assert.Equal(t, uint32(800), bw)
	assert.Equal(t, uint32(400), bh)

	// the initial size plus the restore
	assert.Equal(t, [][2]uint32{{1280, 720}, {800, 400}}, sizes)
	w, h = e.GetFramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(400), h)
}

func TestEngineKeepsLoadingWhileMinimized(t *testing.T) {
	g, backend, _ := headlessGame(t)

	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.NoError(t, e.Initialize())

	e.platform.Resize(0, 0)
	require.True(t, e.Suspended())

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		e.Stop()
		<-done
		t.Fatal("run did not return while minimized")
	}

	assert.Equal(t, uint64(0), e.Frames())
	assert.Equal(t, uint64(0), backend.Frames())
	assert.True(t, g.SystemManager.Settled())
	assert.Len(t, g.SystemManager.Orchestrator.Live().Snapshot(), 1)
	assert.NotNil(t, e.Scene().Environment())
}

func TestRunBeforeInitialize(t *testing.T) {
	g, _, _ := headlessGame(t)
	e, err := New(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	assert.ErrorIs(t, e.Run(), core.ErrEngineNotReady)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(&Game{})
	assert.ErrorIs(t, err, ErrNoApplicationConfig)
}
