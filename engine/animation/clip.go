package animation

import (
	"sort"

	"github.com/spaghettifunk/showroom/engine/math"
)

type TrackPath uint8

const (
	TrackTranslation TrackPath = iota
	TrackRotation
	TrackScale
)

// Components returns how many floats make up one keyframe value.
func (p TrackPath) Components() int {
	if p == TrackRotation {
		return 4
	}
	return 3
}

func (p TrackPath) String() string {
	switch p {
	case TrackTranslation:
		return "translation"
	case TrackRotation:
		return "rotation"
	case TrackScale:
		return "scale"
	}
	return "unknown"
}

/**
 * @brief A keyframed property of a single named node. Times are in seconds
 * and ascending; Values holds Components() floats per keyframe. Rotation
 * values are unit quaternions (x, y, z, w).
 */
type Track struct {
	NodeName string
	Path     TrackPath
	Times    []float32
	Values   []float32
}

// Clip is a named set of tracks played together.
type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

// NewClip builds a clip. A non-positive duration is derived from the last keyframe.
func NewClip(name string, duration float32, tracks []Track) *Clip {
	if duration <= 0 {
		for _, t := range tracks {
			if n := len(t.Times); n > 0 && t.Times[n-1] > duration {
				duration = t.Times[n-1]
			}
		}
	}
	return &Clip{Name: name, Duration: duration, Tracks: tracks}
}

// sample evaluates the track at time t with linear interpolation, clamping
// outside the keyframe range. ok is false for empty or malformed tracks.
func (tr *Track) sample(t float32) (out [4]float32, ok bool) {
	n := tr.Path.Components()
	keys := len(tr.Times)
	if keys == 0 || len(tr.Values) < keys*n {
		return out, false
	}

	i := sort.Search(keys, func(i int) bool { return tr.Times[i] > t })
	switch {
	case i == 0:
		copy(out[:n], tr.Values[:n])
		return out, true
	case i == keys:
		copy(out[:n], tr.Values[(keys-1)*n:keys*n])
		return out, true
	}

	t0, t1 := tr.Times[i-1], tr.Times[i]
	alpha := float32(0)
	if t1 > t0 {
		alpha = (t - t0) / (t1 - t0)
	}
	a := tr.Values[(i-1)*n : i*n]
	b := tr.Values[i*n : (i+1)*n]

	if tr.Path == TrackRotation {
		q := math.QuatNlerp(
			math.Quaternion{X: a[0], Y: a[1], Z: a[2], W: a[3]},
			math.Quaternion{X: b[0], Y: b[1], Z: b[2], W: b[3]},
			alpha,
		)
		return [4]float32{q.X, q.Y, q.Z, q.W}, true
	}
	for c := 0; c < n; c++ {
		out[c] = a[c] + (b[c]-a[c])*alpha
	}
	return out, true
}
