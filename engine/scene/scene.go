package scene

import (
	"sync"

	"github.com/spaghettifunk/showroom/engine/math"
)

// Texture is any image the renderer can bind as the scene environment or
// background. The loaders package provides the HDR implementation.
type Texture interface {
	Dimensions() (width, height int)
}

/**
 * @brief The render scene: a root node, lights and the environment. Insertion
 * is the only mutation in scope; nodes are never removed while the engine runs.
 */
type Scene struct {
	mu          sync.RWMutex
	root        *Node
	lights      []*DirectionalLight
	environment Texture
	background  Texture
}

func NewScene() *Scene {
	return &Scene{root: NewNode("scene")}
}

func (s *Scene) Root() *Node {
	return s.root
}

// Add inserts a subtree below the scene root.
func (s *Scene) Add(node *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Add(node)
}

// AddLight creates a directional light at (x, y, z) and adds it to the scene.
func (s *Scene) AddLight(x, y, z, intensity float32) *DirectionalLight {
	light := NewDirectionalLight(math.NewVec3(x, y, z), intensity)
	light.CastShadow = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, light)
	s.root.Add(light.Node)
	return light
}

func (s *Scene) Lights() []*DirectionalLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*DirectionalLight, len(s.lights))
	copy(out, s.lights)
	return out
}

// Nodes returns the direct children of the root, lights included.
func (s *Scene) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Children()
}

func (s *Scene) SetEnvironment(t Texture) {
	s.mu.Lock()
	s.environment = t
	s.mu.Unlock()
}

func (s *Scene) Environment() Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.environment
}

func (s *Scene) SetBackground(t Texture) {
	s.mu.Lock()
	s.background = t
	s.mu.Unlock()
}

func (s *Scene) Background() Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}
