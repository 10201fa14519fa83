package engine

import (
	"github.com/spaghettifunk/showroom/engine/renderer"
	"github.com/spaghettifunk/showroom/engine/systems"
)

// Game is what the engine runs. Every hook is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	// SystemManager is set by the engine during Initialize.
	SystemManager *systems.SystemManager
	// Backend draws the frames. Defaults to a HeadlessBackend.
	Backend renderer.RendererBackend
	// ProgressUI defaults to a terminal progress bar.
	ProgressUI   systems.ProgressUI
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
