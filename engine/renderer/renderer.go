package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
)

var ErrRendererNotInitialized = errors.New("renderer not initialized")

/**
 * @brief The composited renderer: a backend plus an ordered chain of passes,
 * the first of which is always the scene RenderPass.
 */
type Renderer struct {
	backend     RendererBackend
	passes      []Pass
	width       uint32
	height      uint32
	pixelRatio  float32
	Shadows     ShadowSettings
	initialized bool
}

func New(backend RendererBackend, pixelRatio float32) *Renderer {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return &Renderer{
		backend:    backend,
		passes:     []Pass{NewRenderPass()},
		pixelRatio: pixelRatio,
		Shadows:    ShadowSettings{Enabled: true, Type: ShadowMapPCFSoft},
	}
}

func (r *Renderer) Initialize(appName string, width, height uint32) error {
	if err := r.backend.Initialize(appName, width, height); err != nil {
		return fmt.Errorf("renderer backend: %w", err)
	}
	r.initialized = true
	r.SetSize(width, height)
	return nil
}

func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *Renderer) AddPass(pass Pass) {
	pass.SetSize(r.width, r.height)
	r.passes = append(r.passes, pass)
}

// AddBloom appends a bloom pass sized to the current surface.
func (r *Renderer) AddBloom(strength, radius, threshold float32) *BloomPass {
	p := NewBloomPass(r.width, r.height, strength, radius, threshold)
	r.AddPass(p)
	return p
}

func (r *Renderer) AddSMAA() *SMAAPass {
	p := NewSMAAPass(r.width, r.height, r.pixelRatio)
	r.AddPass(p)
	return p
}

func (r *Renderer) Passes() []Pass {
	out := make([]Pass, len(r.passes))
	copy(out, r.passes)
	return out
}

func (r *Renderer) Size() (uint32, uint32) {
	return r.width, r.height
}

// SetSize resizes the backend and every pass. A zero-sized surface is
// ignored; the engine suspends rendering instead.
func (r *Renderer) SetSize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	r.width, r.height = width, height
	for _, p := range r.passes {
		p.SetSize(width, height)
	}
	if r.initialized {
		if err := r.backend.Resized(width, height); err != nil {
			core.LogError("renderer resize to %dx%d failed: %s", width, height, err)
		}
	}
}

// Render draws the scene through every enabled pass.
func (r *Renderer) Render(s *scene.Scene, camera *components.Camera, deltaTime float64) error {
	if !r.initialized {
		return ErrRendererNotInitialized
	}
	packet := &RenderPacket{
		DeltaTime: deltaTime,
		Scene:     s,
		Camera:    camera,
		Width:     r.width,
		Height:    r.height,
		Shadows:   r.Shadows,
	}

	if err := r.backend.BeginFrame(deltaTime); err != nil {
		return err
	}
	for _, p := range r.passes {
		if !p.Enabled() {
			continue
		}
		if err := r.backend.ExecutePass(p, packet); err != nil {
			return fmt.Errorf("%s pass: %w", p.Type(), err)
		}
	}
	if err := r.backend.EndFrame(deltaTime); err != nil {
		core.LogError("renderer EndFrame failed")
		return err
	}
	return nil
}
