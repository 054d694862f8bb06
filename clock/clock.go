// Package clock abstracts the time source behind the synchronizer so that
// debounce behavior is testable without sleeping.
//
// Production code uses System(). Tests use Fake, which advances manually and
// fires timer callbacks synchronously in deadline order, making every
// scheduling decision deterministic and replayable.
package clock

import "time"

// Clock supplies the current time and one-shot timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules fn to run once after d has elapsed.
	// The callback may run on an arbitrary goroutine.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It returns false if the timer already fired
	// or was already stopped. A false return does not mean the callback
	// has finished running.
	Stop() bool
}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

type systemTimer struct{ t *time.Timer }

func (t systemTimer) Stop() bool { return t.t.Stop() }
