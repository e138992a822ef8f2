package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/host"
	"github.com/roach88/genstore/internal/metrics"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// IDPrefix prefixes the record identities assigned during a run: rec-1,
// rec-2 and so on.
const IDPrefix = "rec"

// Harness runs scenarios against a fresh runtime each time.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sends runtime logs to l instead of discarding them.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes every step in order, then evaluates the assertions.
//
// Step failures that the scenario did not expect are recorded in the result
// rather than aborting the run. The returned error is reserved for failures
// of the harness itself, such as the in-memory store.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	owner := schema.Principal(scenario.owner())
	rt := host.New(host.NewMemoryStore(), owner,
		host.WithLogger(h.logger),
		host.WithIDGenerator(versions.NewSequenceGenerator(IDPrefix)),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		caller := owner
		if step.Caller != "" {
			caller = schema.Principal(step.Caller)
		}

		var out host.Outcome
		var err error
		if step.Op == engine.OpConstruct {
			out, err = rt.Construct(ctx, caller, step.Args.Name)
		} else {
			out, err = rt.Call(ctx, caller, step.Op, step.Args)
		}
		if err != nil && fault.CodeOf(err) == "" {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		ev := TraceEvent{
			Seq:     int64(i + 1),
			Op:      step.Op,
			Caller:  string(caller),
			Outcome: metrics.Outcome(err),
			Logs:    out.Logs,
		}
		if err == nil {
			ev.Result, err = normalize(out.Result)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): normalize result: %w", i, step.Op, err)
			}
		}
		result.AddTrace(ev)

		if msg := checkStep(step, ev, err); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, msg))
		}
		h.logger.Debug("scenario step", "scenario", scenario.Name, "step", i, "op", step.Op, "outcome", ev.Outcome)
	}

	state, err := finalState(ctx, rt)
	if err != nil {
		return nil, err
	}
	result.State = state

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, state) {
		result.AddError(msg)
	}
	return result, nil
}

// checkStep returns a failure message, or "" if the step behaved as
// expected.
func checkStep(step Step, ev TraceEvent, callErr error) string {
	if step.Error != "" {
		got := fault.CodeOf(callErr)
		if got != fault.Code(step.Error) {
			if got == "" {
				return fmt.Sprintf("expected error %s, call succeeded", step.Error)
			}
			return fmt.Sprintf("expected error %s, got %s", step.Error, got)
		}
		return ""
	}
	if callErr != nil {
		return fmt.Sprintf("unexpected error: %v", callErr)
	}
	if step.Expect == "" {
		return ""
	}

	ok, err := Check(step.Expect, map[string]any{"Result": ev.Result, "Logs": ev.Logs})
	if err != nil {
		return err.Error()
	}
	if !ok {
		return fmt.Sprintf("expect %q failed, result %s", step.Expect, describe(ev.Result))
	}
	return ""
}

// finalState returns the normalized stats, or nil if the contract was never
// constructed.
func finalState(ctx context.Context, rt *host.Runtime) (map[string]any, error) {
	stats, err := rt.Stats(ctx)
	if fault.IsUninitialized(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("final state: %w", err)
	}
	v, err := normalize(stats)
	if err != nil {
		return nil, fmt.Errorf("final state: %w", err)
	}
	state, _ := v.(map[string]any)
	return state, nil
}
