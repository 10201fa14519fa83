package renderer

type PassType uint8

const (
	PassTypeRender PassType = iota
	PassTypeBloom
	PassTypeSMAA
)

func (pt PassType) String() string {
	switch pt {
	case PassTypeRender:
		return "render"
	case PassTypeBloom:
		return "bloom"
	case PassTypeSMAA:
		return "smaa"
	}
	return "unknown"
}

// Pass is one stage of the postprocessing chain.
type Pass interface {
	Type() PassType
	Enabled() bool
	// SetSize follows the drawing surface.
	SetSize(width, height uint32)
}

type basePass struct {
	enabled bool
	width   uint32
	height  uint32
}

func (b *basePass) Enabled() bool {
	return b.enabled
}

func (b *basePass) SetEnabled(enabled bool) {
	b.enabled = enabled
}

func (b *basePass) SetSize(width, height uint32) {
	b.width = width
	b.height = height
}

func (b *basePass) Size() (uint32, uint32) {
	return b.width, b.height
}

// RenderPass draws the scene from the camera into the chain.
type RenderPass struct {
	basePass
}

func NewRenderPass() *RenderPass {
	return &RenderPass{basePass{enabled: true}}
}

func (p *RenderPass) Type() PassType { return PassTypeRender }

// BloomPass adds an unreal-style bloom over bright areas.
type BloomPass struct {
	basePass
	Strength  float32
	Radius    float32
	Threshold float32
}

func NewBloomPass(width, height uint32, strength, radius, threshold float32) *BloomPass {
	return &BloomPass{
		basePass:  basePass{enabled: true, width: width, height: height},
		Strength:  strength,
		Radius:    radius,
		Threshold: threshold,
	}
}

func (p *BloomPass) Type() PassType { return PassTypeBloom }

// SMAAPass applies subpixel morphological anti-aliasing. Its resolution is
// the drawing-buffer size, i.e. the surface size times the pixel ratio.
type SMAAPass struct {
	basePass
	PixelRatio float32
}

func NewSMAAPass(width, height uint32, pixelRatio float32) *SMAAPass {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	p := &SMAAPass{basePass: basePass{enabled: true}, PixelRatio: pixelRatio}
	p.SetSize(width, height)
	return p
}

func (p *SMAAPass) Type() PassType { return PassTypeSMAA }

func (p *SMAAPass) SetSize(width, height uint32) {
	p.basePass.SetSize(uint32(float32(width)*p.PixelRatio), uint32(float32(height)*p.PixelRatio))
}
