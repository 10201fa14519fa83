package systems

import (
	"fmt"
	m "math"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/math"
)

// EnvironmentSlot addresses the environment-map slot of a ProgressAggregator.
const EnvironmentSlot = -1

// HideThreshold is the combined percentage at which the progress UI is hidden.
// It sits below 100 on purpose: some transports never report the last bytes.
const HideThreshold = 99.0

// ProgressUI is the on-screen loading indicator.
type ProgressUI interface {
	SetPercentage(percentage int)
	// Hide must be idempotent.
	Hide()
}

/**
 * @brief Combines per-asset progress into one percentage. One slot per asset,
 * plus the environment slot when requested; the slot count never changes.
 * Not safe for concurrent use: every Update is expected to come from the
 * event loop.
 */
type ProgressAggregator struct {
	slots    []float64
	env      float64
	hasEnv   bool
	ui       ProgressUI
	hidden   bool
	onHidden func()
}

func NewProgressAggregator(assetCount int, withEnvironment bool, ui ProgressUI) *ProgressAggregator {
	if assetCount < 0 {
		assetCount = 0
	}
	return &ProgressAggregator{
		slots:  make([]float64, assetCount),
		hasEnv: withEnvironment,
		ui:     ui,
	}
}

// OnHidden registers fn to run once, right after the UI was told to hide.
func (pa *ProgressAggregator) OnHidden(fn func()) {
	pa.onHidden = fn
}

// Update stores percentage in slot (last write wins) and republishes the
// combined value. Values are stored unvalidated.
func (pa *ProgressAggregator) Update(slot int, percentage float64) error {
	switch {
	case slot == EnvironmentSlot && pa.hasEnv:
		pa.env = percentage
	case slot >= 0 && slot < len(pa.slots):
		pa.slots[slot] = percentage
	default:
		return fmt.Errorf("%w: %d", core.ErrUnknownSlot, slot)
	}
	pa.Publish()
	return nil
}

// Publish pushes the current combined percentage to the UI, hiding it the
// first time the threshold is reached.
func (pa *ProgressAggregator) Publish() {
	combined := pa.Combined()
	if pa.ui != nil {
		pa.ui.SetPercentage(toPercentage(combined))
	}
	if combined >= HideThreshold && !pa.hidden {
		pa.hidden = true
		if pa.ui != nil {
			pa.ui.Hide()
		}
		if pa.onHidden != nil {
			pa.onHidden()
		}
	}
}

// Combined is sum(slots)/count(slots). With no slots at all there is nothing
// to wait for, so it is 100.
func (pa *ProgressAggregator) Combined() float64 {
	count := pa.Count()
	if count == 0 {
		return 100
	}
	sum := 0.0
	for _, v := range pa.slots {
		sum += v
	}
	if pa.hasEnv {
		sum += pa.env
	}
	return sum / float64(count)
}

// Percentage is the rounded combined value as shown to the user.
func (pa *ProgressAggregator) Percentage() int {
	return toPercentage(pa.Combined())
}

func (pa *ProgressAggregator) Count() int {
	if pa.hasEnv {
		return len(pa.slots) + 1
	}
	return len(pa.slots)
}

// Slot returns the raw value of a slot.
func (pa *ProgressAggregator) Slot(slot int) (float64, error) {
	switch {
	case slot == EnvironmentSlot && pa.hasEnv:
		return pa.env, nil
	case slot >= 0 && slot < len(pa.slots):
		return pa.slots[slot], nil
	}
	return 0, fmt.Errorf("%w: %d", core.ErrUnknownSlot, slot)
}

func (pa *ProgressAggregator) Hidden() bool {
	return pa.hidden
}

func toPercentage(v float64) int {
	if m.IsNaN(v) {
		return 0
	}
	return int(math.Clamp(m.Round(v), 0, 100))
}

// percentOf converts a transport tick into a percentage. ok is false when
// the total is unknown.
func percentOf(loaded, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(loaded) / float64(total) * 100, true
}
