package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kvisten/autosave/clock"
	"github.com/kvisten/autosave/obs"
)

// Trigger identifies what started a flush.
type Trigger string

const (
	// TriggerTimer means the Delay timer expired.
	TriggerTimer Trigger = "timer"

	// TriggerMaxWait means a mutation arrived at or past the MaxWait
	// ceiling of its window.
	TriggerMaxWait Trigger = "max_wait"

	// TriggerImmediate means the first mutation of a window fired in
	// Immediate mode.
	TriggerImmediate Trigger = "immediate"

	// TriggerManual means an explicit Flush call.
	TriggerManual Trigger = "manual"

	// TriggerClose means the final flush performed by Close.
	TriggerClose Trigger = "close"
)

// Synchronizer debounces write-back of a Container's value to storage.
//
// It is a three-state machine: Idle (no window open, no timer), Pending
// (timer armed, flush not yet executing), Flushing (save callback running).
// A mutation in Idle opens a window; further mutations in Pending re-arm the
// timer; a mutation in Flushing opens the *next* window, which is scheduled
// once the running save settles.
//
// INVARIANTS:
//   - at most one save callback executes at a time per instance, enforced
//     by the inFlight flag and settled channel, never by holding mu across
//     the callback
//   - the snapshot for a flush is taken when the flush starts executing,
//     not when it was scheduled
//   - a window's first-mutation time is cleared only when a flush for that
//     window starts, so the MaxWait ceiling cannot be reset by re-arming
//
// Thread-safety: all exported methods are safe for concurrent use.
type Synchronizer[T any] struct {
	container *Container[T]
	save      SaveFunc[T]
	cfg       Config

	clk     clock.Clock
	logger  *slog.Logger
	onError func(error)
	metrics *obs.FlushMetrics

	mu             sync.Mutex
	timer          clock.Timer
	timerGen       uint64 // bumped on every arm and flush start; stale fires check it
	firstPendingAt time.Time
	dirty          bool
	firePending    bool // a zero-delay fire is armed; don't re-arm over it
	inFlight       bool
	settled        chan struct{} // closed when the in-flight flush settles
}

// New builds a synchronizer that persists container through save and
// attaches itself so that every Container.Update signals a mutation.
func New[T any](container *Container[T], save SaveFunc[T], cfg Config, opts ...Option) (*Synchronizer[T], error) {
	if container == nil {
		return nil, fmt.Errorf("autosave: container is required")
	}
	if save == nil {
		return nil, fmt.Errorf("autosave: save function is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Synchronizer[T]{
		container: container,
		save:      save,
		cfg:       cfg,
		clk:       o.clock,
		logger:    o.logger,
		onError:   o.onError,
		metrics:   o.metrics,
	}
	container.attach(s.NotifyMutation)
	return s, nil
}

// NotifyMutation records one logical state change and (re)schedules the
// debounced flush. Container.Update calls it automatically; call it
// directly only when state is mutated through some other path.
func (s *Synchronizer[T]) NotifyMutation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	s.dirty = true

	if s.inFlight {
		// Opens the next window. The running save keeps its own snapshot;
		// scheduling resumes when it settles.
		if s.firstPendingAt.IsZero() {
			s.firstPendingAt = now
			s.metrics.WindowOpened()
		}
		return
	}
	if s.firePending {
		// A flush is already due on the next tick. The mutation folds into
		// its snapshot, which is taken when the flush executes.
		return
	}

	fresh := s.firstPendingAt.IsZero()
	if fresh {
		s.firstPendingAt = now
		s.metrics.WindowOpened()
		if s.cfg.Immediate {
			s.fireSoonLocked(TriggerImmediate)
			return
		}
	}
	s.scheduleLocked(now)
}

// Flush cancels any pending timer and persists the current state now,
// first waiting for an in-flight flush to settle so saves never overlap.
//
// When no mutation has arrived since the last completed flush, the save
// callback is skipped entirely and Flush returns nil; saving on demand with
// nothing changed is a no-op, not an error. A failed save is returned as a
// *SaveError. ctx bounds the wait for an in-flight flush and is passed to
// the save callback.
func (s *Synchronizer[T]) Flush(ctx context.Context) error {
	return s.flush(ctx, TriggerManual)
}

// Close performs a final manual flush of any pending window. The
// synchronizer stays usable afterwards; teardown ownership remains with
// the caller.
func (s *Synchronizer[T]) Close(ctx context.Context) error {
	return s.flush(ctx, TriggerClose)
}

func (s *Synchronizer[T]) flush(ctx context.Context, trigger Trigger) error {
	for {
		s.mu.Lock()
		s.disarmLocked()
		if !s.inFlight {
			break
		}
		settled := s.settled
		s.mu.Unlock()
		select {
		case <-settled:
			// The queued manual flush runs immediately after the in-flight
			// one; loop to re-check the machine state.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.beginFlushLocked()
	s.mu.Unlock()

	start := s.clk.Now()
	err := s.save(ctx, snapshot)
	s.metrics.ObserveFlush(string(trigger), s.clk.Now().Sub(start), err)
	s.finishFlush()
	if err != nil {
		return &SaveError{Trigger: trigger, Err: err}
	}
	return nil
}

// scheduleLocked arms the flush timer for the open window. The MaxWait
// ceiling is measured from the window's first mutation; once a mutation
// arrives at or past it, the flush fires now instead of re-arming.
func (s *Synchronizer[T]) scheduleLocked(now time.Time) {
	if s.cfg.MaxWait > 0 && now.Sub(s.firstPendingAt) >= s.cfg.MaxWait {
		s.fireSoonLocked(TriggerMaxWait)
		return
	}
	s.armLocked(s.cfg.Delay, TriggerTimer)
}

// fireSoonLocked schedules a flush for the next tick. Mutations arriving
// before it executes fold into its snapshot.
func (s *Synchronizer[T]) fireSoonLocked(trigger Trigger) {
	s.armLocked(0, trigger)
	s.firePending = true
}

// armLocked replaces the pending timer. Caller holds mu.
func (s *Synchronizer[T]) armLocked(d time.Duration, trigger Trigger) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.clk.AfterFunc(d, func() { s.onTimer(gen, trigger) })
}

// disarmLocked cancels the pending timer and invalidates any fire that
// already raced past Stop.
func (s *Synchronizer[T]) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.firePending = false
}

// onTimer is the automatic flush path. gen detects stale fires: a timer
// that raced with a re-arm, a manual flush, or a flush start.
func (s *Synchronizer[T]) onTimer(gen uint64, trigger Trigger) {
	s.mu.Lock()
	if gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if !s.dirty {
		// Window already drained.
		s.mu.Unlock()
		return
	}
	snapshot := s.beginFlushLocked()
	s.mu.Unlock()

	// Automatic flushes have no caller-supplied context.
	start := s.clk.Now()
	err := s.save(context.Background(), snapshot)
	s.metrics.ObserveFlush(string(trigger), s.clk.Now().Sub(start), err)
	if err != nil {
		serr := &SaveError{Trigger: trigger, Err: err}
		s.logger.Error("automatic flush failed",
			"trigger", string(trigger),
			"error", err)
		if s.onError != nil {
			s.onError(serr)
		}
	} else {
		s.logger.Debug("state flushed", "trigger", string(trigger))
	}
	s.finishFlush()
}

// beginFlushLocked transitions Pending -> Flushing: consumes the open
// window and takes the snapshot the save callback will receive.
func (s *Synchronizer[T]) beginFlushLocked() T {
	s.disarmLocked()
	s.inFlight = true
	s.settled = make(chan struct{})
	s.firstPendingAt = time.Time{}
	s.dirty = false
	s.metrics.WindowClosed()
	return s.container.Snapshot()
}

// finishFlush transitions Flushing -> Idle, or back to Pending when a
// mutation arrived while the save was running.
func (s *Synchronizer[T]) finishFlush() {
	s.mu.Lock()
	s.inFlight = false
	close(s.settled)
	s.settled = nil
	if s.dirty {
		// A new window opened mid-flight. It must not be dropped; in
		// Immediate mode its deferred first flush fires on the next tick
		// now that the previous save has settled.
		if s.cfg.Immediate {
			s.fireSoonLocked(TriggerImmediate)
		} else {
			s.scheduleLocked(s.clk.Now())
		}
	}
	s.mu.Unlock()
}
