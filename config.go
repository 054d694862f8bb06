package autosave

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kvisten/autosave/clock"
	"github.com/kvisten/autosave/obs"
)

// Config controls the debounce policy. It is fixed once the synchronizer is
// constructed.
type Config struct {
	// Delay is the quiet period after the most recent mutation before an
	// automatic flush fires. Zero means every mutation flushes on the next
	// tick, coalescing only mutations arriving within the same tick.
	Delay time.Duration

	// MaxWait caps how long a mutation burst may keep postponing a flush,
	// measured from the first mutation of the window. The ceiling is
	// enforced when a mutation arrives at or past it, so it wins even when
	// smaller than Delay. Zero means unbounded.
	MaxWait time.Duration

	// Immediate fires the first flush of a window on the next tick instead
	// of waiting for Delay. Later mutations in the same window debounce
	// normally.
	Immediate bool
}

func (c Config) validate() error {
	if c.Delay < 0 {
		return fmt.Errorf("autosave: delay must not be negative, got %v", c.Delay)
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("autosave: max wait must not be negative, got %v", c.MaxWait)
	}
	return nil
}

// Option customizes a Synchronizer beyond its Config.
type Option func(*options)

type options struct {
	clock   clock.Clock
	logger  *slog.Logger
	onError func(error)
	metrics *obs.FlushMetrics
}

func defaultOptions() options {
	return options{
		clock:  clock.System(),
		logger: slog.Default(),
	}
}

// WithClock substitutes the time source. Tests pass a clock.Fake to drive
// the debounce machinery deterministically.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for automatic-flush failures and debug logs.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOnError registers a hook invoked with the *SaveError of every failed
// automatic flush. Manual Flush errors are returned to the caller instead
// and do not reach the hook.
func WithOnError(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithMetrics attaches Prometheus collectors recording flush activity.
func WithMetrics(m *obs.FlushMetrics) Option {
	return func(o *options) { o.metrics = m }
}
