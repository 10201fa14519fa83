package loaders

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	m "math"
	"strings"

	"github.com/spaghettifunk/showroom/engine/animation"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/spaghettifunk/showroom/engine/scene"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errNoURIResolver      = errors.New("external buffer without a URI resolver")
)

// URIResolver fetches an external buffer referenced relative to the asset.
type URIResolver func(uri string) ([]byte, error)

/**
 * @brief Parses glTF 2.0 assets, both the JSON (.gltf) and the binary
 * container (.glb) forms, into a node hierarchy plus animation clips.
 * Geometry and materials stay with the GPU pipeline and are only counted.
 */
type GLTFLoader struct {
	ResolveURI URIResolver
}

// IsGLB reports whether data starts with the GLB magic.
func IsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

func (gl *GLTFLoader) Parse(name string, data []byte) (*Model, error) {
	var (
		doc *gltfDocument
		err error
	)
	if IsGLB(data) {
		doc, err = gl.parseGLB(data)
	} else {
		doc, err = gl.parseGLTF(data, nil)
	}
	if err != nil {
		return nil, err
	}

	names := nodeNames(doc)
	root, err := buildHierarchy(doc, name, names)
	if err != nil {
		return nil, err
	}

	clips := make([]*animation.Clip, 0, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := readClip(doc, i, names)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips = append(clips, clip)
	}

	return &Model{
		Name:      name,
		Root:      root,
		Clips:     clips,
		MeshCount: len(doc.Meshes),
		ByteSize:  int64(len(data)),
	}, nil
}

func (gl *GLTFLoader) parseGLTF(data []byte, glbBinary []byte) (*gltfDocument, error) {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}
	if err := gl.loadBuffers(&doc, glbBinary); err != nil {
		return nil, fmt.Errorf("failed to load buffers: %w", err)
	}
	return &doc, nil
}

// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (gl *GLTFLoader) parseGLB(data []byte) (*gltfDocument, error) {
	if len(data) < 12 {
		return nil, errors.New("GLB file too small")
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonData, binData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("chunk of %d bytes exceeds the %d bytes left: %w",
				chunkHeader.ChunkLength, r.Len(), errBufferSizeMismatch)
		}
		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}
	if jsonData == nil {
		return nil, errMissingJSONChunk
	}
	return gl.parseGLTF(jsonData, binData)
}

func (gl *GLTFLoader) loadBuffers(doc *gltfDocument, glbBinary []byte) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && glbBinary != nil:
			buf.Data = glbBinary
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			if gl.ResolveURI == nil {
				return fmt.Errorf("buffer %d: %w", i, errNoURIResolver)
			}
			data, err := gl.ResolveURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, errInvalidBufferURI
	}
	header := uri[5:commaIdx]
	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}
	data, err := base64.StdEncoding.DecodeString(uri[commaIdx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// nodeNames gives every node a name usable as an animation target.
func nodeNames(doc *gltfDocument) []string {
	names := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		names[i] = n.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("node_%d", i)
		}
	}
	return names
}

func buildHierarchy(doc *gltfDocument, name string, names []string) (*scene.Node, error) {
	root := scene.NewNode(name)

	var top []int
	switch {
	case len(doc.Scenes) > 0:
		idx := 0
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if idx < 0 || idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("scene index %d out of range", idx)
		}
		top = doc.Scenes[idx].Nodes
	default:
		// no scenes: every node nobody references is a root
		child := make([]bool, len(doc.Nodes))
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				if c >= 0 && c < len(child) {
					child[c] = true
				}
			}
		}
		for i := range doc.Nodes {
			if !child[i] {
				top = append(top, i)
			}
		}
	}

	visited := make([]bool, len(doc.Nodes))
	var build func(idx int) (*scene.Node, error)
	build = func(idx int) (*scene.Node, error) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return nil, fmt.Errorf("node %d appears twice in the hierarchy", idx)
		}
		visited[idx] = true

		src := doc.Nodes[idx]
		n := scene.NewNode(names[idx])
		if src.Mesh != nil {
			n.Mesh = *src.Mesh
		}
		applyNodeTransform(n, &src)

		for _, c := range src.Children {
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			n.Add(child)
		}
		return n, nil
	}

	for _, idx := range top {
		n, err := build(idx)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func applyNodeTransform(n *scene.Node, src *gltfNode) {
	if src.Matrix != nil {
		pos, rot, scale := decomposeMatrix(src.Matrix)
		n.Transform.SetPositionRotationScale(pos, rot.ToEuler(), scale)
		return
	}
	if t := src.Translation; t != nil {
		n.Transform.SetPosition(math.NewVec3(t[0], t[1], t[2]))
	}
	if r := src.Rotation; r != nil {
		q := math.Quaternion{X: r[0], Y: r[1], Z: r[2], W: r[3]}
		n.Transform.SetRotation(q.Normalize().ToEuler())
	}
	if s := src.Scale; s != nil {
		n.Transform.SetScale(math.NewVec3(s[0], s[1], s[2]))
	}
}

// decomposeMatrix splits a column-major TRS matrix. Shear is dropped.
func decomposeMatrix(m *[16]float32) (math.Vec3, math.Quaternion, math.Vec3) {
	pos := math.NewVec3(m[12], m[13], m[14])
	scale := math.NewVec3(
		math.NewVec3(m[0], m[1], m[2]).Length(),
		math.NewVec3(m[4], m[5], m[6]).Length(),
		math.NewVec3(m[8], m[9], m[10]).Length(),
	)
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return pos, math.NewQuatIdentity(), scale
	}
	// element (row r, column c) lives at m[c*4+r]
	q := math.NewQuatFromRotationMatrix(
		m[0]/scale.X, m[4]/scale.Y, m[8]/scale.Z,
		m[1]/scale.X, m[5]/scale.Y, m[9]/scale.Z,
		m[2]/scale.X, m[6]/scale.Y, m[10]/scale.Z,
	)
	return pos, q, scale
}

func readClip(doc *gltfDocument, index int, names []string) (*animation.Clip, error) {
	anim := doc.Animations[index]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", index)
	}

	var duration float32
	tracks := make([]animation.Track, 0, len(anim.Channels))
	for ci, ch := range anim.Channels {
		var path animation.TrackPath
		switch ch.Target.Path {
		case "translation":
			path = animation.TrackTranslation
		case "rotation":
			path = animation.TrackRotation
		case "scale":
			path = animation.TrackScale
		default:
			// morph weights are left to the GPU pipeline
			core.LogDebug("skipping channel %d with target path '%s'", ci, ch.Target.Path)
			continue
		}
		if ch.Target.Node == nil {
			continue
		}
		node := *ch.Target.Node
		if node < 0 || node >= len(names) {
			return nil, fmt.Errorf("channel %d targets node %d out of range", ci, node)
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("channel %d sampler %d out of range", ci, ch.Sampler)
		}
		sampler := anim.Samplers[ch.Sampler]

		times, _, err := readAccessorFloats(doc, sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("channel %d input: %w", ci, err)
		}
		values, components, err := readAccessorFloats(doc, sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}
		if components != path.Components() {
			return nil, fmt.Errorf("channel %d: %s output has %d components", ci, path, components)
		}
		if sampler.Interpolation == "CUBICSPLINE" {
			values = cubicSplineValues(values, components)
		}
		if len(values) < len(times)*components {
			return nil, fmt.Errorf("channel %d: %d keyframes but %d values", ci, len(times), len(values))
		}

		if acc := doc.Accessors[sampler.Input]; len(acc.Max) > 0 && acc.Max[0] > duration {
			duration = acc.Max[0]
		} else if n := len(times); n > 0 && times[n-1] > duration {
			duration = times[n-1]
		}

		tracks = append(tracks, animation.Track{
			NodeName: names[node],
			Path:     path,
			Times:    times,
			Values:   values,
		})
	}
	return animation.NewClip(name, duration, tracks), nil
}

// cubicSplineValues keeps the value element of each (in-tangent, value, out-tangent) triple.
func cubicSplineValues(values []float32, components int) []float32 {
	keys := len(values) / (3 * components)
	out := make([]float32, 0, keys*components)
	for k := 0; k < keys; k++ {
		start := (3*k + 1) * components
		out = append(out, values[start:start+components]...)
	}
	return out
}

// readAccessorFloats returns the accessor as float32 values, converting
// normalized integer components the way the glTF specification defines.
func readAccessorFloats(doc *gltfDocument, index int) ([]float32, int, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &doc.Accessors[index]
	components := gltfAccessorTypeComponentCount(acc.Type)
	componentSize := gltfComponentTypeSize(acc.ComponentType)
	if components == 0 || componentSize == 0 {
		return nil, 0, fmt.Errorf("unsupported accessor type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, 0, fmt.Errorf("accessor %d: negative count or byteOffset: %w", index, errBufferSizeMismatch)
	}
	if acc.BufferView == nil {
		// all zeros per the glTF specification
		if acc.Count > gltfMaxZeroAccessorCount {
			return nil, 0, fmt.Errorf("accessor %d: %d zero elements: %w", index, acc.Count, errBufferSizeMismatch)
		}
		return make([]float32, acc.Count*components), components, nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("bufferView index %d out of range", *acc.BufferView)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].Data
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteOffset > len(buf) || bv.ByteLength > len(buf)-bv.ByteOffset {
		return nil, 0, fmt.Errorf("bufferView %d lies outside its buffer: %w", *acc.BufferView, errBufferSizeMismatch)
	}
	view := buf[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]

	elementSize := componentSize * components
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	if acc.Count > 0 {
		// base+(count-1)*stride+elementSize <= len(view), without overflowing
		avail := len(view) - acc.ByteOffset - elementSize
		if avail < 0 || (acc.Count-1) > avail/stride {
			return nil, 0, errBufferSizeMismatch
		}
	}
	base := acc.ByteOffset

	out := make([]float32, acc.Count*components)
	for i := 0; i < acc.Count; i++ {
		for c := 0; c < components; c++ {
			off := base + i*stride + c*componentSize
			out[i*components+c] = readComponent(view[off:off+componentSize], acc.ComponentType)
		}
	}
	return out, components, nil
}

func readComponent(b []byte, componentType int) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return m.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeByte:
		return math.Clamp(float32(int8(b[0]))/127, -1, 1)
	case gltfComponentTypeUnsignedByte:
		return float32(b[0]) / 255
	case gltfComponentTypeShort:
		return math.Clamp(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1, 1)
	case gltfComponentTypeUnsignedShort:
		return float32(binary.LittleEndian.Uint16(b)) / 65535
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
