package animation

import (
	m "math"

	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/spaghettifunk/showroom/engine/scene"
)

type LoopMode uint8

const (
	LoopOnce LoopMode = iota
	LoopRepeat
)

/**
 * @brief The animation clock of one object. A mixer is bound to a root node;
 * every action created through it resolves its tracks against that subtree.
 */
type Mixer struct {
	root    *scene.Node
	time    float64
	actions []*Action
}

func NewMixer(root *scene.Node) *Mixer {
	return &Mixer{root: root}
}

func (mx *Mixer) Root() *scene.Node {
	return mx.root
}

// Time is the total time the mixer has been advanced by, in seconds.
func (mx *Mixer) Time() float64 {
	return mx.time
}

// ClipAction returns the action playing clip on this mixer, creating it on first use.
func (mx *Mixer) ClipAction(clip *Clip) *Action {
	for _, a := range mx.actions {
		if a.clip == clip {
			return a
		}
	}
	a := &Action{
		mixer:   mx,
		clip:    clip,
		Loop:    LoopRepeat,
		targets: make([]*scene.Node, len(clip.Tracks)),
	}
	if mx.root != nil {
		for i, tr := range clip.Tracks {
			if mx.root.Name == tr.NodeName {
				a.targets[i] = mx.root
				continue
			}
			a.targets[i] = mx.root.FindByName(tr.NodeName)
		}
	}
	mx.actions = append(mx.actions, a)
	return a
}

func (mx *Mixer) Actions() []*Action {
	out := make([]*Action, len(mx.actions))
	copy(out, mx.actions)
	return out
}

// Update advances the mixer and all of its playing actions by delta seconds.
// A zero or negative delta leaves every clock untouched.
func (mx *Mixer) Update(delta float64) {
	if delta <= 0 || m.IsNaN(delta) || m.IsInf(delta, 0) {
		return
	}
	mx.time += delta
	for _, a := range mx.actions {
		if a.playing {
			a.advance(delta)
		}
	}
}

// Action is the playback state of one clip on one mixer.
type Action struct {
	mixer   *Mixer
	clip    *Clip
	targets []*scene.Node

	Loop    LoopMode
	playing bool
	time    float64
	elapsed float64
}

func (a *Action) Clip() *Clip {
	return a.clip
}

// Play starts (or resumes) the action and poses the targets at the current time.
func (a *Action) Play() *Action {
	a.playing = true
	a.apply()
	return a
}

func (a *Action) Stop() *Action {
	a.playing = false
	a.time = 0
	a.elapsed = 0
	return a
}

func (a *Action) IsRunning() bool {
	return a.playing
}

// Time is the local clip time in seconds, wrapped for looping actions.
func (a *Action) Time() float64 {
	return a.time
}

// Elapsed is the total playing time the action was advanced by.
func (a *Action) Elapsed() float64 {
	return a.elapsed
}

func (a *Action) advance(delta float64) {
	a.elapsed += delta
	a.time += delta

	duration := float64(a.clip.Duration)
	if duration > 0 && a.time > duration {
		switch a.Loop {
		case LoopRepeat:
			a.time = m.Mod(a.time, duration)
		default:
			a.time = duration
			a.playing = false
		}
	}
	a.apply()
}

func (a *Action) apply() {
	t := float32(a.time)
	for i := range a.clip.Tracks {
		node := a.targets[i]
		if node == nil {
			continue
		}
		tr := &a.clip.Tracks[i]
		v, ok := tr.sample(t)
		if !ok {
			continue
		}
		switch tr.Path {
		case TrackTranslation:
			node.Transform.SetPosition(math.NewVec3(v[0], v[1], v[2]))
		case TrackScale:
			node.Transform.SetScale(math.NewVec3(v[0], v[1], v[2]))
		case TrackRotation:
			q := math.Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}
			node.Transform.SetRotation(q.ToEuler())
		}
	}
}
