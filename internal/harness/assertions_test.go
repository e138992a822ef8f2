package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTrace = []TraceEvent{
	{Seq: 1, Op: "construct", Caller: "o", Outcome: "ok"},
	{Seq: 2, Op: "set_name", Caller: "x", Outcome: "unauthorized"},
	{Seq: 3, Op: "add_generation_2", Caller: "o", Outcome: "ok"},
	{Seq: 4, Op: "set_name", Caller: "o", Outcome: "ok"},
}

func TestAssertTraceContains(t *testing.T) {
	assert.NoError(t, assertTraceContains(sampleTrace, Assertion{Op: "set_name"}))
	assert.NoError(t, assertTraceContains(sampleTrace, Assertion{Op: "set_name", Outcome: "unauthorized"}))

	err := assertTraceContains(sampleTrace, Assertion{Op: "add_generation_2", Outcome: "already_migrated"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add_generation_2 with outcome already_migrated")
	assert.Contains(t, err.Error(), "[2] set_name by x: unauthorized")
}

func TestAssertTraceOrder(t *testing.T) {
	assert.NoError(t, assertTraceOrder(sampleTrace, Assertion{Ops: []string{"construct", "set_name", "add_generation_2"}}))

	err := assertTraceOrder(sampleTrace, Assertion{Ops: []string{"add_generation_2", "set_name"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add_generation_2 (pos 3) should be before set_name (pos 2)")

	err = assertTraceOrder(sampleTrace, Assertion{Ops: []string{"construct", "remove_generation_1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: remove_generation_1")
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Op: "set_name", Count: 2}))
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Op: "bloat_map", Count: 0}))

	err := assertTraceCount(sampleTrace, Assertion{Op: "construct", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func TestEvaluateAssertions(t *testing.T) {
	state := map[string]any{"version": "gen-2", "records": float64(2)}
	errs := EvaluateAssertions(&Result{Trace: sampleTrace}, []Assertion{
		{Type: AssertTraceCount, Op: "set_name", Count: 2},
		{Type: AssertFinalState, Expect: `version == "gen-2" && records == 2`},
		{Type: AssertFinalState, Expect: `records > 2`},
		{Type: "bogus"},
	}, state)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[2]")
	assert.Contains(t, errs[0], `"records":2`)
	assert.Contains(t, errs[1], `assertions[3]: unknown assertion type "bogus"`)
}

func TestCheck(t *testing.T) {
	env := map[string]any{
		"Result": map[string]any{"name": "Ada", "tags": []any{"a", "b"}},
	}

	ok, err := Check(`Result.name == "Ada" && len(Result.tags) == 2`, env)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Check(`Result.name == "Eve"`, env)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Check(`Result.name ==`, env)
	assert.ErrorContains(t, err, "compile")
}
