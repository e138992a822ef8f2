package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	with := sqliteArgs(t)
	mustExecute(t, with("construct", "Ada Lovelace")...)

	stdout := mustExecute(t, with("inspect")...)
	assert.Contains(t, stdout, "GENERATION")
	assert.Equal(t, []string{"*", "0", "gen-1"}, tableRow(t, stdout, "gen-1")[:3])
	assert.Contains(t, stdout, "migrations: (none)")

	mustExecute(t, with("add_generation_2", "--color", "blue")...)
	stdout = mustExecute(t, with("inspect")...)
	assert.Equal(t, []string{"", "0", "gen-1"}, tableRow(t, stdout, "gen-1")[:3])
	assert.Equal(t, []string{"*", "1", "gen-2"}, tableRow(t, stdout, "gen-2")[:3])
	assert.Contains(t, stdout, "migrations: add_generation_2")
}

// tableRow returns the trimmed cells of the single table row mentioning cell.
func tableRow(t *testing.T, out, cell string) []string {
	t.Helper()
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == '|' || r == '│' })
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		for _, f := range fields {
			if f == cell {
				rows = append(rows, fields)
				break
			}
		}
	}
	require.Len(t, rows, 1, "rows with %q in:\n%s", cell, out)
	return rows[0]
}

func TestInspectUninitialized(t *testing.T) {
	_, stderr, err := execute(t, sqliteArgs(t)("inspect")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E102]")
}

func TestStats(t *testing.T) {
	with := sqliteArgs(t)
	mustExecute(t, with("construct", "Ada Lovelace")...)
	assert.Equal(t, "190\n", mustExecute(t, with("bloat_map")...))

	stdout := mustExecute(t, with("stats")...)
	assert.Contains(t, stdout, "version:    gen-1")
	assert.Contains(t, stdout, "records:    1")
	assert.Contains(t, stdout, "map:        190 entries")
	assert.Contains(t, stdout, "saves:      2")
	assert.Contains(t, stdout, "size:       ")
	assert.Contains(t, stdout, "digest:     ")
}

func TestStatsJSON(t *testing.T) {
	with := sqliteArgs(t)
	mustExecute(t, with("construct", "Ada Lovelace")...)
	mustExecute(t, with("add_generation_2", "--color", "blue")...)
	mustExecute(t, with("add_generation_3_and_migrate")...)
	mustExecute(t, with("remove_generation_1")...)

	stdout := mustExecute(t, with("--format", "json", "stats")...)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gen-3", data["version"])
	assert.Equal(t, float64(2), data["records"])
	assert.Equal(t, float64(-1), data["map_len"])
	assert.Equal(t, float64(4), data["saves"])
	assert.Equal(t, []any{"add_generation_2", "add_generation_3_and_migrate"}, data["migrations"])
}

func TestStatsUninitialized(t *testing.T) {
	_, stderr, err := execute(t, "--backend", "memory", "stats")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [E102]")
}
