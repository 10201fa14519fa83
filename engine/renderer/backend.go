package renderer

import (
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
)

type ShadowMapType uint8

const (
	ShadowMapBasic ShadowMapType = iota
	ShadowMapPCF
	ShadowMapPCFSoft
)

type ShadowSettings struct {
	Enabled bool
	Type    ShadowMapType
}

// RenderPacket is everything a backend needs to draw one frame.
type RenderPacket struct {
	DeltaTime float64
	Scene     *scene.Scene
	Camera    *components.Camera
	Width     uint32
	Height    uint32
	Shadows   ShadowSettings
}

// RendererBackend is the GPU side of the renderer. Implementations live
// outside this module; HeadlessBackend is provided for tests and servers.
type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	ExecutePass(pass Pass, packet *RenderPacket) error
	EndFrame(deltaTime float64) error
}
