package systems

import (
	m "math"
	"testing"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedIsTheMeanOfAllSlots(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(3, false, ui)

	require.NoError(t, pa.Update(0, 50))
	require.NoError(t, pa.Update(1, 100))
	require.NoError(t, pa.Update(2, 100))

	assert.InDelta(t, 83.33, pa.Combined(), 0.01)
	assert.Equal(t, 83, ui.last())
	assert.Equal(t, 0, ui.hideCount())
	assert.False(t, pa.Hidden())
}

func TestEnvironmentSlotCountsTowardsTheTotal(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(2, true, ui)
	assert.Equal(t, 3, pa.Count())

	require.NoError(t, pa.Update(0, 100))
	require.NoError(t, pa.Update(1, 100))
	assert.Equal(t, 67, ui.last())

	require.NoError(t, pa.Update(EnvironmentSlot, 100))
	assert.Equal(t, 100, ui.last())
	assert.Equal(t, 1, ui.hideCount())

	// later updates keep publishing but never hide again
	require.NoError(t, pa.Update(0, 100))
	assert.Equal(t, 1, ui.hideCount())
}

func TestHideFiresOnceAtThreshold(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(1, false, ui)
	hidden := 0
	pa.OnHidden(func() { hidden++ })

	require.NoError(t, pa.Update(0, 98.9))
	assert.Equal(t, 0, ui.hideCount())

	require.NoError(t, pa.Update(0, HideThreshold))
	require.NoError(t, pa.Update(0, 100))
	assert.Equal(t, 1, ui.hideCount())
	assert.Equal(t, 1, hidden)
	assert.True(t, pa.Hidden())
}

func TestLastWriteWins(t *testing.T) {
	pa := NewProgressAggregator(1, false, nil)
	require.NoError(t, pa.Update(0, 80))
	require.NoError(t, pa.Update(0, 40))

	v, err := pa.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, v)
	assert.Equal(t, 40, pa.Percentage())
}

func TestUnknownSlotIsRejected(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(2, false, ui)

	assert.ErrorIs(t, pa.Update(2, 10), core.ErrUnknownSlot)
	assert.ErrorIs(t, pa.Update(EnvironmentSlot, 10), core.ErrUnknownSlot)
	assert.ErrorIs(t, pa.Update(-7, 10), core.ErrUnknownSlot)
	assert.Empty(t, ui.values)

	_, err := pa.Slot(5)
	assert.ErrorIs(t, err, core.ErrUnknownSlot)
}

func TestNonFiniteValuesDoNotBreakTheUI(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(1, false, ui)

	require.NoError(t, pa.Update(0, m.NaN()))
	assert.Equal(t, 0, ui.last())
	assert.Equal(t, 0, ui.hideCount())

	require.NoError(t, pa.Update(0, 250))
	assert.Equal(t, 100, ui.last())

	require.NoError(t, pa.Update(0, -30))
	assert.Equal(t, 0, ui.last())
}

func TestNoSlotsMeansDone(t *testing.T) {
	ui := &recordingUI{}
	pa := NewProgressAggregator(0, false, ui)
	assert.Equal(t, 100.0, pa.Combined())

	pa.Publish()
	assert.Equal(t, 100, ui.last())
	assert.Equal(t, 1, ui.hideCount())
}

func TestPercentOf(t *testing.T) {
	pct, ok := percentOf(50, 200)
	assert.True(t, ok)
	assert.Equal(t, 25.0, pct)

	_, ok = percentOf(50, 0)
	assert.False(t, ok)
	_, ok = percentOf(50, -1)
	assert.False(t, ok)
}
