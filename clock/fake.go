package clock

import (
	"sync"
	"time"
)

// Fake is a manual Clock for tests.
//
// Time only moves when Advance is called. Timers whose deadlines fall within
// the advanced span fire synchronously on the calling goroutine, in deadline
// order (arming order breaks ties). Callbacks observe Now() == their own
// deadline and may arm further timers; a new timer due within the same span
// fires during the same Advance call.
//
// Thread-safety: all methods are safe for concurrent use, but Advance must
// not be called from inside a timer callback.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	seq      int
	fn       func()
	stopped  bool
	fired    bool
}

// NewFake creates a Fake clock frozen at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn to fire when the clock has advanced by d.
// A non-positive d fires on the next Advance call, including Advance(0).
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing every due timer.
//
// The clock jumps to each due deadline before running its callback, so
// callbacks see a consistent Now(). The lock is released while a callback
// runs; callbacks may therefore call back into the clock.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextDueLocked(target)
		if t == nil {
			break
		}
		if t.deadline.After(f.now) {
			f.now = t.deadline
		}
		t.fired = true
		f.mu.Unlock()
		t.fn()
		f.mu.Lock()
	}
	f.now = target
	f.compactLocked()
	f.mu.Unlock()
}

// nextDueLocked returns the earliest live timer due at or before target.
func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	var best *fakeTimer
	for _, t := range f.timers {
		if t.fired || t.stopped || t.deadline.After(target) {
			continue
		}
		if best == nil || t.deadline.Before(best.deadline) ||
			(t.deadline.Equal(best.deadline) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// compactLocked drops fired and stopped timers so long tests do not
// accumulate garbage.
func (f *Fake) compactLocked() {
	live := f.timers[:0]
	for _, t := range f.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	f.timers = live
}
