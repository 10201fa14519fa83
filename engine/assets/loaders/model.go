package loaders

import (
	"github.com/spaghettifunk/showroom/engine/animation"
	"github.com/spaghettifunk/showroom/engine/scene"
)

// Model is a parsed scene asset ready to be inserted into the render scene.
type Model struct {
	Name string
	// Root is a group node owning every top-level node of the asset.
	Root      *scene.Node
	Clips     []*animation.Clip
	MeshCount int
	ByteSize  int64
}
