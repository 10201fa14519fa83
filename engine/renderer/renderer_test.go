package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	*HeadlessBackend
	failOn PassType
}

func (fb *failingBackend) ExecutePass(pass Pass, packet *RenderPacket) error {
	if pass.Type() == fb.failOn {
		return errors.New("boom")
	}
	return fb.HeadlessBackend.ExecutePass(pass, packet)
}

func TestRenderRequiresInitialize(t *testing.T) {
	r := New(NewHeadlessBackend(), 1)
	err := r.Render(scene.NewScene(), components.NewCamera(), 0)
	assert.ErrorIs(t, err, ErrRendererNotInitialized)
}

func TestRenderRunsPassesInOrder(t *testing.T) {
	backend := NewHeadlessBackend()
	r := New(backend, 1)
	require.NoError(t, r.Initialize("test", 800, 600))
	bloom := r.AddBloom(0.25, 0.25, 0.25)
	r.AddSMAA()

	s := scene.NewScene()
	model := scene.NewNode("model")
	body := scene.NewNode("body")
	body.Mesh = 0
	model.Add(body)
	s.Add(model)
	s.AddLight(1, 1, 1, scene.DefaultLightIntensity)

	require.NoError(t, r.Render(s, components.NewCamera(), 0.016))
	assert.Equal(t, uint64(1), backend.Frames())

	stats := backend.LastFrame()
	assert.Equal(t, []PassType{PassTypeRender, PassTypeBloom, PassTypeSMAA}, stats.Passes)
	// root, model, body, light
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 1, stats.Meshes)
	assert.Equal(t, 1, stats.Lights)
	assert.False(t, stats.Environment)

	bloom.SetEnabled(false)
	require.NoError(t, r.Render(s, components.NewCamera(), 0.016))
	assert.Equal(t, []PassType{PassTypeRender, PassTypeSMAA}, backend.LastFrame().Passes)
}

func TestSetSizeFollowsPasses(t *testing.T) {
	backend := NewHeadlessBackend()
	r := New(backend, 2)
	require.NoError(t, r.Initialize("test", 800, 600))
	bloom := r.AddBloom(1, 0, 0)
	smaa := r.AddSMAA()

	r.SetSize(1024, 768)
	w, h := bloom.Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
	w, h = smaa.Size()
	assert.Equal(t, uint32(2048), w)
	assert.Equal(t, uint32(1536), h)
	w, h = backend.Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)

	// zero sizes are ignored
	r.SetSize(0, 0)
	w, h = r.Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestRenderReportsFailingPass(t *testing.T) {
	backend := &failingBackend{HeadlessBackend: NewHeadlessBackend(), failOn: PassTypeBloom}
	r := New(backend, 1)
	require.NoError(t, r.Initialize("test", 10, 10))
	r.AddBloom(1, 1, 1)

	err := r.Render(scene.NewScene(), components.NewCamera(), 0)
	assert.ErrorContains(t, err, "bloom pass")
	assert.Equal(t, uint64(0), backend.Frames())
}

func TestShadowsDefaultToPCFSoft(t *testing.T) {
	r := New(NewHeadlessBackend(), 0)
	assert.True(t, r.Shadows.Enabled)
	assert.Equal(t, ShadowMapPCFSoft, r.Shadows.Type)
}
