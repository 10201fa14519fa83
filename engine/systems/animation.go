package systems

import "time"

// AnimationDriver advances the animation clocks of every loaded object.
type AnimationDriver struct {
	live *LiveSet
}

func NewAnimationDriver(live *LiveSet) *AnimationDriver {
	return &AnimationDriver{live: live}
}

// Tick advances every mixer of every object in a snapshot of the live set by
// delta, and returns how many mixers were advanced. Objects inserted during
// the tick are picked up on the next one.
func (d *AnimationDriver) Tick(delta time.Duration) int {
	if d.live == nil {
		return 0
	}
	seconds := delta.Seconds()
	advanced := 0
	for _, obj := range d.live.Snapshot() {
		for _, binding := range obj.Animations {
			binding.Mixer.Update(seconds)
			advanced++
		}
	}
	return advanced
}
