package core

import (
	"sync"

	"github.com/spaghettifunk/showroom/engine/containers"
)

// Poster schedules a callback on the event loop.
type Poster interface {
	Post(fn func())
}

// Loop is the single logical thread everything scene-related runs on.
// Any goroutine may Post; only the owner (the render goroutine) calls
// RunPending, so posted callbacks never run concurrently with each other
// or with a frame.
type Loop struct {
	mu      sync.Mutex
	pending *containers.RingQueue[func()]
	wake    chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		pending: containers.NewGrowableRingQueue[func()](64),
		wake:    make(chan struct{}, 1),
	}
}

func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	// growable queue, Enqueue cannot fail
	_ = l.pending.Enqueue(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunPending runs every callback queued so far, in post order, and returns
// how many ran. Callbacks posted while draining run in the same call.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		l.mu.Lock()
		fn, err := l.pending.Dequeue()
		l.mu.Unlock()
		if err != nil {
			return ran
		}
		fn()
		ran++
	}
}

// Pending reports how many callbacks are waiting.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Len()
}

// Wake is signalled after a Post; lets an idle owner block instead of spinning.
func (l *Loop) Wake() <-chan struct{} {
	return l.wake
}
