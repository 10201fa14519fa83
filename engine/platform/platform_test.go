package platform

import (
	"testing"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessPlatform(t *testing.T) {
	events := core.NewEventSystem()
	p, err := New(events, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), int64(p.GetAbsoluteTime()))

	require.NoError(t, p.Startup("test", 0, 0, 640, 480))
	assert.True(t, p.Headless())
	assert.Nil(t, p.Window)
	assert.True(t, p.PumpMessages())

	w, h := p.FramebufferSize()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)
	require.NoError(t, p.Shutdown())
}

func TestResizeFiresEvent(t *testing.T) {
	events := core.NewEventSystem()
	p, err := New(events, true)
	require.NoError(t, err)
	require.NoError(t, p.Startup("test", 0, 0, 640, 480))

	var got *core.SystemEvent
	events.Register(core.EVENT_CODE_RESIZED, func(ctx core.EventContext) bool {
		got = ctx.Data.(*core.SystemEvent)
		return true
	})

	p.Resize(1024, 768)
	require.NotNil(t, got)
	assert.Equal(t, uint32(1024), got.WindowWidth)
	assert.Equal(t, uint32(768), got.WindowHeight)

	w, h := p.FramebufferSize()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}
