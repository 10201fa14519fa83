package platform

import (
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/showroom/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief The OS window. The client API is left unset: the GPU backend that
 * draws into it creates its own surface. In headless mode no window is
 * created and PumpMessages does nothing.
 */
type Platform struct {
	Window *glfw.Window

	events    *core.EventSystem
	headless  bool
	startTime time.Time
	width     uint32
	height    uint32
}

// New creates a platform reporting to events (the process-wide event
// system when nil).
func New(events *core.EventSystem, headless bool) (*Platform, error) {
	if events == nil {
		events = core.Events()
	}
	return &Platform{
		events:   events,
		headless: headless,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	p.startTime = time.Now()
	p.width, p.height = width, height
	if p.headless {
		core.LogInfo("running headless at %dx%d", width, height)
		return nil
	}

	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
		glfw.Terminate()
	}
	return nil
}

// PumpMessages dispatches pending window events. Returns false once the
// window was asked to close.
func (p *Platform) PumpMessages() bool {
	if p.Window == nil {
		return true
	}
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *Platform) Headless() bool {
	return p.headless
}

// FramebufferSize is the drawable size in pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	if p.Window != nil {
		w, h := p.Window.GetFramebufferSize()
		return uint32(w), uint32(h)
	}
	return p.width, p.height
}

// GetAbsoluteTime is the time since Startup.
func (p *Platform) GetAbsoluteTime() time.Duration {
	if p.startTime.IsZero() {
		return 0
	}
	return time.Since(p.startTime)
}

// Resize reports a new framebuffer size as if the OS had sent it. The
// window callback goes through here too.
func (p *Platform) Resize(width, height uint32) {
	p.width, p.height = width, height
	p.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: width, WindowHeight: height},
	})
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		p.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	}
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if width < 0 || height < 0 {
		return
	}
	p.Resize(uint32(width), uint32(height))
}
