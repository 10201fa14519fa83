package scene

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/showroom/engine/math"
)

// Node is a renderable subtree: a transform, shadow flags and children.
type Node struct {
	ID            uuid.UUID
	Name          string
	Transform     *math.Transform
	CastShadow    bool
	ReceiveShadow bool
	// Mesh is the index of the mesh in the source asset, or -1 for groups.
	Mesh int

	mu       sync.RWMutex
	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		ID:        uuid.New(),
		Name:      name,
		Transform: math.TransformCreate(),
		Mesh:      -1,
	}
}

// Add attaches child below n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if old := child.Parent(); old != nil {
		old.Remove(child)
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = n
	child.mu.Unlock()
	child.Transform.Parent = n.Transform
}

func (n *Node) Remove(child *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			child.mu.Lock()
			child.parent = nil
			child.mu.Unlock()
			child.Transform.Parent = nil
			return true
		}
	}
	return false
}

func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a snapshot of the direct children.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Traverse visits n and every descendant depth-first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children() {
		c.Traverse(fn)
	}
}

// FindByName returns the first node in the subtree with the given name.
func (n *Node) FindByName(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}
