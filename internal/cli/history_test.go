package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHistoryCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedHistory runs two fixture scenarios into a fresh database.
func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hidux.db")
	for _, name := range []string{"append_keeps_prior", "cart_sharing"} {
		_, err := runRunCmd(t, "text", "--db", dbPath, filepath.Join(scenariosDir, name+".yaml"))
		require.NoError(t, err)
	}
	return dbPath
}

func TestHistory_RequiresDB(t *testing.T) {
	_, err := runHistoryCmd(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestHistory_DatabaseNotFound(t *testing.T) {
	_, err := runHistoryCmd(t, "text", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestHistory_ListInstances(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, "text", "--db", dbPath, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "append_keeps_prior-1  model=append_keeps_prior  snapshots=2  seq=1..2")
	assert.Contains(t, out, "cart-1  model=Cart  snapshots=6  seq=1..6")
	assert.Contains(t, out, "✓ History verified")
}

func TestHistory_Instance(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, "text", "--db", dbPath, "--instance", "append_keeps_prior-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Instance append_keeps_prior-1 (model append_keeps_prior), 2 snapshot(s)")
	assert.Contains(t, out, `{"items":[1,2]}`)
	assert.Contains(t, out, `{"items":[1,2,3]}`)

	out, err = runHistoryCmd(t, "json", "--db", dbPath, "--instance", "cart-1")
	require.NoError(t, err)
	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Instance)
	assert.Equal(t, "Cart", resp.Data.Instance.Model)
	assert.Equal(t, int64(6), resp.Data.Instance.LatestSeq)
	require.Len(t, resp.Data.Snapshots, 6)
	assert.Equal(t, int64(1), resp.Data.Snapshots[0].Seq)
}

func TestHistory_UnknownInstance(t *testing.T) {
	dbPath := seedHistory(t)

	_, err := runHistoryCmd(t, "text", "--db", dbPath, "--instance", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "instance not found: nope")
}

func TestHistory_VerifyDetectsTampering(t *testing.T) {
	dbPath := seedHistory(t)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(),
		`UPDATE snapshots SET state = '{"items":[9]}' WHERE instance_id = ? AND seq = 2`,
		"append_keeps_prior-1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runHistoryCmd(t, "text", "--db", dbPath, "--instance", "append_keeps_prior-1", "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ History verification failed")
	assert.Contains(t, out, "append_keeps_prior-1@2: stored")

	out, err = runHistoryCmd(t, "json", "--db", dbPath, "--verify")
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "E_VERIFY_FAILED", resp.Error.Code)
}

func TestHistory_SingleSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "single.db")
	_, err := runRunCmd(t, "text", "--db", dbPath, filepath.Join(scenariosDir, "same_value_noop.yaml"))
	require.NoError(t, err)

	out, err := runHistoryCmd(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "same_value_noop-1")
	assert.Contains(t, out, "snapshots=1")
}
