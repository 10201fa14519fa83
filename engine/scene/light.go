package scene

import "github.com/spaghettifunk/showroom/engine/math"

const DefaultLightIntensity float32 = 5

// DirectionalLight shines from Node's position towards the origin.
type DirectionalLight struct {
	*Node
	Colour     math.Vec3
	Intensity  float32
	CastShadow bool
}

func NewDirectionalLight(position math.Vec3, intensity float32) *DirectionalLight {
	n := NewNode("directional_light")
	n.Transform.SetPosition(position)
	return &DirectionalLight{
		Node:      n,
		Colour:    math.NewVec3One(),
		Intensity: intensity,
	}
}
