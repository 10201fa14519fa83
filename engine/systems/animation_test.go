package systems

import (
	"context"
	"testing"
	"time"

	"github.com/spaghettifunk/showroom/engine/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func animatedObject(t *testing.T) *LoadedObject {
	t.Helper()
	loader := &fakeModels{models: map[string]fakeModel{"bot.glb": {clips: []*animation.Clip{bobbingClip()}}}}
	obj, err := NewAssetLoadTask(NewLoadSpec("bot.glb"), 0, loader, nil).Run(context.Background())
	require.NoError(t, err)
	return obj
}

func TestDriverZeroDeltaLeavesClocksAlone(t *testing.T) {
	live := &LiveSet{}
	obj := animatedObject(t)
	live.Add(obj)

	d := NewAnimationDriver(live)
	assert.Equal(t, 1, d.Tick(0))
	assert.Equal(t, 0.0, obj.Animations[0].Mixer.Time())
}

func TestDriverAdvancesEveryMixer(t *testing.T) {
	live := &LiveSet{}
	a, b := animatedObject(t), animatedObject(t)
	live.Add(a)
	live.Add(b)

	d := NewAnimationDriver(live)
	assert.Equal(t, 2, d.Tick(250*time.Millisecond))
	assert.Equal(t, 0.25, a.Animations[0].Mixer.Time())
	assert.Equal(t, 0.25, b.Animations[0].Mixer.Time())

	body := a.Node.FindByName("body")
	require.NotNil(t, body)
	assert.InDelta(t, 0.25, float64(body.Transform.Position.Y), 1e-6)
}

func TestDriverWithoutAnimations(t *testing.T) {
	live := &LiveSet{}
	live.Add(&LoadedObject{})
	assert.Equal(t, 0, NewAnimationDriver(live).Tick(time.Second))
	assert.Equal(t, 0, NewAnimationDriver(nil).Tick(time.Second))
}
