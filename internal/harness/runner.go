package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kvisten/autosave"
	"github.com/kvisten/autosave/clock"
)

// TraceEvent records one flush observed during a scenario run.
type TraceEvent struct {
	Seq   int            `json:"seq"`
	AtMS  int64          `json:"at_ms"`
	State map[string]any `json:"state"`
}

// TraceSnapshot is the complete observable output of one scenario: every
// flush the synchronizer performed, in order, with the state each one
// carried.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Run executes the scenario against a fake clock frozen at the Unix epoch
// and returns the flush trace. The state document is a free-form map; each
// mutate step merges its keys in one Update.
func Run(sc *Scenario) (*TraceSnapshot, error) {
	cfg, err := sc.Config.ToConfig()
	if err != nil {
		return nil, err
	}

	epoch := time.Unix(0, 0).UTC()
	clk := clock.NewFake(epoch)
	container := autosave.NewContainer[map[string]any]()

	snap := &TraceSnapshot{ScenarioName: sc.Name, Trace: []TraceEvent{}}
	record := func(ctx context.Context, state map[string]any) error {
		snap.Trace = append(snap.Trace, TraceEvent{
			Seq:   len(snap.Trace) + 1,
			AtMS:  clk.Now().Sub(epoch).Milliseconds(),
			State: state,
		})
		return nil
	}

	sync, err := autosave.New(container, record, cfg,
		autosave.WithClock(clk),
		autosave.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, err
	}

	for i, step := range sc.Steps {
		switch {
		case step.Mutate != nil:
			container.Update(func(state *map[string]any) {
				if *state == nil {
					*state = make(map[string]any, len(step.Mutate))
				}
				for k, v := range step.Mutate {
					(*state)[k] = v
				}
			})
		case step.Advance != "":
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return nil, fmt.Errorf("harness: step %d: %w", i, err)
			}
			clk.Advance(d)
		case step.Flush:
			if err := sync.Flush(context.Background()); err != nil {
				return nil, fmt.Errorf("harness: step %d: manual flush: %w", i, err)
			}
		}
	}
	return snap, nil
}
