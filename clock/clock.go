// Package clock is the tick/timer abstraction the core schedules its
// timeouts against. Timeouts in the core are never wall-clock durations:
// handlers compute an absolute tick (clock.Now() + interval) and the
// scheduler delivers a timeout event no earlier than that tick (§5).
package clock

import (
	"sync"
	"time"
)

// Tick is an opaque, monotonically increasing point in time. The core only
// ever compares Ticks to each other; it never interprets one as wall-clock
// time.
type Tick int64

// Clock reports the current tick.
type Clock interface {
	Now() Tick
}

// Timer schedules a callback no earlier than a given Tick. Rescheduling on
// each timeout refresh is explicit and is the caller's job, not the timer's:
// the timer has no notion of "the" timeout for a role, only of individual
// scheduled callbacks.
type Timer interface {
	ScheduleOnce(at Tick, fn func())
	ScheduleRepeated(period time.Duration, fn func()) (cancel func())
}

// Real is a Clock/Timer pair backed by wall-clock time, grounded on the
// teacher's getTimeoutEvent var-assigned function (consensus/scope.go),
// generalized from single pending timeouts to a reusable scheduler.
type Real struct {
	start time.Time
	mu    sync.Mutex
	timer *time.Timer
}

func NewReal() *Real {
	return &Real{start: time.Now()}
}

func (r *Real) Now() Tick {
	return Tick(time.Since(r.start).Milliseconds())
}

func (r *Real) ScheduleOnce(at Tick, fn func()) {
	delay := time.Duration(int64(at)-int64(r.Now())) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, fn)
}

func (r *Real) ScheduleRepeated(period time.Duration, fn func()) (cancel func()) {
	t := time.NewTicker(period)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return func() {
		t.Stop()
		close(done)
	}
}
