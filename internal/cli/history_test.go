package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	with := sqliteArgs(t)
	assert.Equal(t, "No calls journaled.\n", mustExecute(t, with("history")...))

	mustExecute(t, with("construct", "Ada")...)
	mustExecute(t, with("get_name")...)
	_, _, err := execute(t, with("--caller", "mallory.near", "set_name", "--name", "Eve")...)
	require.Error(t, err)

	stdout := mustExecute(t, with("history")...)
	header := tableRow(t, stdout, "SEQ")
	assert.Equal(t, []string{"SEQ", "OP", "CALLER", "OUTCOME", "DIGEST"}, header)

	constructed := tableRow(t, stdout, "construct")
	assert.Equal(t, []string{"1", "construct", "genstore.near", "ok"}, constructed[:4])
	assert.Len(t, constructed[4], 12)
	assert.Equal(t, []string{"2", "get_name", "genstore.near", "ok"}, tableRow(t, stdout, "get_name")[:4])
	refused := tableRow(t, stdout, "set_name")
	assert.Equal(t, []string{"3", "set_name", "mallory.near", "unauthorized"}, refused[:4])
	assert.Equal(t, "-", refused[4])

	assert.Less(t, strings.Index(stdout, "construct"), strings.Index(stdout, "get_name"))
	assert.Less(t, strings.Index(stdout, "get_name"), strings.Index(stdout, "set_name"))
}

func TestHistoryFilterAndLimit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state.leveldb")
	with := func(args ...string) []string {
		return append([]string{"--backend", "leveldb", "--db", dir}, args...)
	}
	mustExecute(t, with("construct", "Ada")...)
	for range 3 {
		mustExecute(t, with("get_name")...)
	}
	mustExecute(t, with("current_version")...)

	stdout := mustExecute(t, with("--format", "json", "history", "--op", "get_name", "--limit", "2")...)
	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Seq     int64  `json:"seq"`
			Op      string `json:"op"`
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(3), resp.Data[0].Seq)
	assert.Equal(t, int64(4), resp.Data[1].Seq)
	assert.Equal(t, "get_name", resp.Data[1].Op)
	assert.Equal(t, "ok", resp.Data[1].Outcome)
}

func TestHistoryWithoutJournal(t *testing.T) {
	_, stderr, err := execute(t, "--backend", "memory", "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E006]")
}

func TestHistoryNegativeLimit(t *testing.T) {
	_, stderr, err := execute(t, sqliteArgs(t)("history", "--limit", "-1")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E002]")
}
