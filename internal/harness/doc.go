// Package harness replays deployment scenarios against a contract runtime.
//
// A scenario is the life of one contract: construction, field updates,
// migrations and reads, each issued by a named caller. Every step runs through
// a real host.Runtime over an in-memory byte store, so ownership checks,
// atomic commits and error kinds behave exactly as they do in production.
//
// # Scenario Format
//
//	name: rename_after_migration
//	description: "gen-3 names derive from the gen-1 name"
//	owner: owner.near
//	steps:
//	  - op: construct
//	    args: { name: "Ada Lovelace" }
//	  - op: add_generation_2
//	    args: { color: blue }
//	    expect: Result == 1
//	  - op: set_name
//	    caller: mallory.near
//	    args: { name: x }
//	    error: UNAUTHORIZED
//	assertions:
//	  - type: trace_count
//	    op: set_name
//	    count: 1
//	  - type: final_state
//	    expect: version == "gen-2" && records == 2
//
// Expectations are expr-lang expressions evaluated against the step result
// (Result, Logs) or, for final_state, the runtime stats (version, records,
// map_len, migrations, slots). Values are seen as JSON: struct fields are
// addressed by their JSON names and numbers compare numerically.
//
// # Assertion Types
//
//   - trace_contains: a step with op (and optionally outcome) ran
//   - trace_order: the listed ops first ran in this order
//   - trace_count: op ran exactly count times
//   - final_state: an expression over the final stats holds
//
// # Deterministic Runs
//
// Record identities come from a sequence generator and trace seq numbers are
// step positions, so the same scenario always yields the same trace. Traces
// are compared against golden files with RunWithGolden.
package harness
