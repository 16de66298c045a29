package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_Pass(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, "testdata/scenarios")

	require.NoError(t, err)
	assert.Equal(t, "✓ europe\n✓ rename\n\n2 passed, 0 failed, 2 total\n", out)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, "testdata/scenarios", "--filter", "ren*")

	require.NoError(t, err)
	assert.Equal(t, "✓ rename\n\n1 passed, 0 failed, 1 total\n", out)
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json"}, NewTestCommand, "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	assert.Len(t, resp.Data.Scenarios, 2)
}

func TestTestCommand_Failing(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, "testdata/failing")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_code")
	assert.Contains(t, out, "  Expected: STEP_NOT_SUPPORTED")
	assert.Contains(t, out, "  Actual: success")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommand_MissingDir(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, "testdata/none")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommand_Empty(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommand_UpdateThenMismatch(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	pipelines := filepath.Join(dir, "pipelines")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))
	require.NoError(t, os.MkdirAll(pipelines, 0o755))

	data, err := os.ReadFile(salesFixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pipelines, "sales.json"), data, 0o644))
	data, err = os.ReadFile("testdata/scenarios/europe.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "europe.yaml"), data, 0o644))

	out, err := runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ europe (golden updated)")

	written, err := os.ReadFile(filepath.Join(scenarios, "golden", "europe.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile("testdata/scenarios/golden/europe.golden")
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "golden", "europe.golden"), []byte("{}\n"), 0o644))
	out, err = runCommand(t, &RootOptions{Format: "text"}, NewTestCommand, scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "do not match golden file")
}
