package components

import (
	"testing"

	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, float32(75), c.FOV)
	assert.Equal(t, float32(0.1), c.Near)
	assert.Equal(t, float32(1000), c.Far)
	assert.Equal(t, float32(-1), c.ProjectionMatrix.Data[11])
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix.Data[0]

	c.SetAspect(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, float64(c.Aspect), 1e-6)
	assert.NotEqual(t, before, c.ProjectionMatrix.Data[0])
	assert.InDelta(t, float64(c.ProjectionMatrix.Data[5])/float64(c.Aspect), float64(c.ProjectionMatrix.Data[0]), 1e-5)

	// minimised windows report 0x0
	c.SetAspect(0, 0)
	assert.InDelta(t, 1920.0/1080.0, float64(c.Aspect), 1e-6)
}

func TestViewInvertsPosition(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(0, 0, 5))
	v := c.GetView()
	assert.False(t, c.IsDirty)
	assert.Equal(t, float32(-5), v.Data[14])

	// the camera origin maps to the view-space origin
	world := math.NewMat4Translation(c.Position).Mul(v)
	assert.InDelta(t, 0, float64(world.Data[14]), 1e-6)
}

func TestViewUndoesRotationAndPosition(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(1, 2, 3))
	c.SetEulerRotation(math.NewVec3(0.2, math.K_HALF_PI, -0.4))
	assert.True(t, c.IsDirty)

	v := c.GetView()
	world := math.NewMat4EulerXYZ(0.2, math.K_HALF_PI, -0.4).Mul(math.NewMat4Translation(c.Position))
	identity := math.NewMat4Identity()
	got := world.Mul(v)
	for i := range got.Data {
		assert.InDelta(t, float64(identity.Data[i]), float64(got.Data[i]), 1e-5, "element %d", i)
	}
}
