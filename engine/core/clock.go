package core

import "time"

// Clock measures wall-clock time between frames.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	lastTick  time.Time
	elapsed   time.Duration
	started   bool
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource builds a clock reading time from fn. Used by tests to
// drive frames deterministically.
func NewClockWithSource(fn func() time.Time) *Clock {
	return &Clock{now: fn}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.lastTick = time.Time{}
	c.elapsed = 0
	c.started = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.started = false
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.started {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Tick returns the time since the previous Tick. The first Tick after Start
// (or on a never started clock) returns 0.
func (c *Clock) Tick() time.Duration {
	now := c.now()
	if !c.started {
		c.startTime = now
		c.started = true
	}
	if c.lastTick.IsZero() {
		c.lastTick = now
		return 0
	}
	delta := now.Sub(c.lastTick)
	c.lastTick = now
	if delta < 0 {
		return 0
	}
	return delta
}
