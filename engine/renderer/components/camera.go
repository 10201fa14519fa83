package components

import (
	"github.com/spaghettifunk/showroom/engine/math"
)

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

const (
	DefaultFOV  float32 = 75
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 1000
)

/**
 * @brief A perspective camera. Position and rotation go through the setters
 * so the view matrix is rebuilt when needed; lens changes require a call to
 * UpdateProjectionMatrix.
 */
type Camera struct {
	Name string
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead.
	 */
	EulerRotation math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/** @brief The view matrix of this camera, read it through GetView(). */
	ViewMatrix math.Mat4

	/** @brief Vertical field of view in degrees. */
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
	/** @brief The projection matrix, rebuilt by UpdateProjectionMatrix(). */
	ProjectionMatrix math.Mat4
}

func NewCamera() *Camera {
	return NewPerspectiveCamera(DefaultFOV, 1, DefaultNear, DefaultFar)
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *Camera {
	camera := &Camera{
		Name:   DEFAULT_CAMERA_NAME,
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	camera.Reset()
	camera.UpdateProjectionMatrix()
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = math.NewVec3Zero()
	c.Position = math.NewVec3Zero()
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

// SetAspect follows a surface resize. Zero-sized surfaces are ignored.
func (c *Camera) SetAspect(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
	c.UpdateProjectionMatrix()
}

func (c *Camera) UpdateProjectionMatrix() {
	c.ProjectionMatrix = math.NewMat4Perspective(math.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// GetView returns the inverse of the camera's world transform.
func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		// world = R * T, so view = T(-p) * transpose(R)
		rotation := math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
		translation := math.NewMat4Translation(c.Position.MulScalar(-1))
		c.ViewMatrix = translation.Mul(rotation.Transposed())
		c.IsDirty = false
	}
	return c.ViewMatrix
}
