package renderer

import (
	"sync"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/scene"
)

// FrameStats is what a HeadlessBackend saw of the last frame.
type FrameStats struct {
	Passes      []PassType
	Nodes       int
	Meshes      int
	Lights      int
	Environment bool
	Background  bool
}

// HeadlessBackend draws nothing. It walks the scene each frame and keeps
// counters, which is enough for tests and for running without a GPU.
type HeadlessBackend struct {
	mu     sync.Mutex
	width  uint32
	height uint32
	frames uint64
	last   FrameStats
	cur    FrameStats
	inside bool
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

func (hb *HeadlessBackend) Initialize(appName string, appWidth, appHeight uint32) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.width, hb.height = appWidth, appHeight
	core.LogDebug("headless renderer ready for '%s' (%dx%d)", appName, appWidth, appHeight)
	return nil
}

func (hb *HeadlessBackend) Shutdown() error {
	return nil
}

func (hb *HeadlessBackend) Resized(width, height uint32) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.width, hb.height = width, height
	return nil
}

func (hb *HeadlessBackend) BeginFrame(deltaTime float64) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.cur = FrameStats{}
	hb.inside = true
	return nil
}

func (hb *HeadlessBackend) ExecutePass(pass Pass, packet *RenderPacket) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.cur.Passes = append(hb.cur.Passes, pass.Type())
	if pass.Type() != PassTypeRender || packet.Scene == nil {
		return nil
	}
	s := packet.Scene
	s.Root().Traverse(func(n *scene.Node) {
		hb.cur.Nodes++
		if n.Mesh >= 0 {
			hb.cur.Meshes++
		}
	})
	hb.cur.Lights = len(s.Lights())
	hb.cur.Environment = s.Environment() != nil
	hb.cur.Background = s.Background() != nil
	return nil
}

func (hb *HeadlessBackend) EndFrame(deltaTime float64) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if hb.inside {
		hb.frames++
		hb.last = hb.cur
		hb.inside = false
	}
	return nil
}

func (hb *HeadlessBackend) Frames() uint64 {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.frames
}

func (hb *HeadlessBackend) LastFrame() FrameStats {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.last
}

func (hb *HeadlessBackend) Size() (uint32, uint32) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.width, hb.height
}
