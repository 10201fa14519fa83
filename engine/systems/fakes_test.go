package systems

import (
	"context"
	"errors"
	"sync"

	"github.com/spaghettifunk/showroom/engine/animation"
	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/scene"
)

var errBoom = errors.New("boom")

type recordingUI struct {
	mu     sync.Mutex
	values []int
	hides  int
}

func (r *recordingUI) SetPercentage(percentage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, percentage)
}

func (r *recordingUI) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hides++
}

func (r *recordingUI) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return -1
	}
	return r.values[len(r.values)-1]
}

func (r *recordingUI) hideCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hides
}

// fakeModel describes what fakeModels returns for one path.
type fakeModel struct {
	// ticks are (loaded, total) pairs reported before returning
	ticks [][2]int64
	clips []*animation.Clip
	err   error
	// gate, when set, blocks the load until closed
	gate chan struct{}
}

type fakeModels struct {
	models map[string]fakeModel
}

func (f *fakeModels) LoadModel(ctx context.Context, path string, onProgress assets.ProgressFunc) (*loaders.Model, error) {
	fm, ok := f.models[path]
	if !ok {
		return nil, errors.New("no such model")
	}
	if fm.gate != nil {
		select {
		case <-fm.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, tick := range fm.ticks {
		if onProgress != nil {
			onProgress(tick[0], tick[1])
		}
	}
	if fm.err != nil {
		return nil, fm.err
	}
	root := scene.NewNode(path)
	root.Add(scene.NewNode("body"))
	return &loaders.Model{Name: path, Root: root, Clips: fm.clips, MeshCount: 1, ByteSize: 2048}, nil
}

type fakeEnvironments struct {
	ticks [][2]int64
	err   error
	gate  chan struct{}
}

func (f *fakeEnvironments) LoadEnvironment(ctx context.Context, path string, onProgress assets.ProgressFunc) (*loaders.EnvironmentMap, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, tick := range f.ticks {
		if onProgress != nil {
			onProgress(tick[0], tick[1])
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &loaders.EnvironmentMap{Name: path, Width: 2, Height: 1, Exposure: 1, Pixels: make([]float32, 6), ByteSize: 64}, nil
}

func bobbingClip() *animation.Clip {
	return animation.NewClip("bob", 0, []animation.Track{{
		NodeName: "body",
		Path:     animation.TrackTranslation,
		Times:    []float32{0, 1, 2},
		Values:   []float32{0, 0, 0, 0, 1, 0, 0, 0, 0},
	}})
}
