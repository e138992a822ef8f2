package harness

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Op      string   `json:"op"`
	Caller  string   `json:"caller"`
	Outcome string   `json:"outcome"`
	Result  any      `json:"result,omitempty"`
	Logs    []string `json:"logs,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed step or assertion. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final runtime stats as seen by final_state assertions.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// TraceText renders the trace one step per line, with log lines indented
// beneath their step. Results are compact JSON.
func (r *Result) TraceText() ([]byte, error) {
	var b strings.Builder
	for _, ev := range r.Trace {
		fmt.Fprintf(&b, "%d %s caller=%s outcome=%s", ev.Seq, ev.Op, ev.Caller, ev.Outcome)
		if ev.Result != nil {
			data, err := json.Marshal(ev.Result)
			if err != nil {
				return nil, fmt.Errorf("trace %d: %w", ev.Seq, err)
			}
			fmt.Fprintf(&b, " result=%s", data)
		}
		b.WriteByte('\n')
		for _, line := range ev.Logs {
			fmt.Fprintf(&b, "  log: %s\n", line)
		}
	}
	return []byte(b.String()), nil
}
