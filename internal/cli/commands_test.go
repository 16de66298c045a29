package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	salesFixture      = "testdata/pipelines/sales.json"
	totalsFixture     = "testdata/pipelines/totals.yaml"
	incompleteFixture = "testdata/pipelines/incomplete.json"
	stagesFixture     = "testdata/pipelines/stages.json"
)

// runCommand executes the command built by newCmd and returns its stdout.
func runCommand(t *testing.T, opts *RootOptions, newCmd func(*RootOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newCmd(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestTranslate_Mongo36Golden(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "mongo36"}, NewTranslateCommand, totalsFixture)

	require.NoError(t, err)
	newGoldie(t).Assert(t, "translate_mongo36", []byte(out))
}

func TestTranslate_SQLiteGolden(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "sqlite"}, NewTranslateCommand, salesFixture)

	require.NoError(t, err)
	newGoldie(t).Assert(t, "translate_sqlite", []byte(out))
}

func TestTranslate_SQLiteJSON(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json", Backend: "sqlite"}, NewTranslateCommand, salesFixture)
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   SQLQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Data.SQL, `WHERE "Region" = ?`)
	assert.Equal(t, []any{"Europe"}, resp.Data.Params)
}

func TestTranslate_UpTo(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "mongo36"}, NewTranslateCommand, "--upto", "0", salesFixture)

	require.NoError(t, err)
	assert.Equal(t, `[{"$match":{"domain":"sales"}}]`+"\n", out)
}

func TestTranslate_UpToOutOfRange(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "mongo36"}, NewTranslateCommand, "--upto", "3", salesFixture)

	require.Error(t, err)
	assert.Contains(t, out, "out of range")
}

func TestTranslate_Domain(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "mongo36"}, NewTranslateCommand, "--domain", "orders", "--upto", "1", salesFixture)

	require.NoError(t, err)
	assert.Equal(t, `[{"$match":{"domain":"orders","Region":"Europe"}}]`+"\n", out)
}

func TestTranslate_UnknownBackend(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json", Backend: "bla"}, NewTranslateCommand, salesFixture)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeUnknownBackend, resp.Error.Code)
}

func TestTranslate_StepNotSupported(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text", Backend: "sqlite"}, NewTranslateCommand, incompleteFixture)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]")
	assert.Contains(t, out, "Unsupported step <rename>")
}

func TestTranslate_MissingFile(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json", Backend: "mongo36"}, NewTranslateCommand, "testdata/pipelines/missing.json")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "E005", decodeResponse(t, out).Error.Code)
}

func TestToMongo_Golden(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewToMongoCommand, salesFixture)

	require.NoError(t, err)
	newGoldie(t).Assert(t, "to_mongo", []byte(out))
}

func TestToMongo_RejectsAggregate(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json"}, NewToMongoCommand, totalsFixture)

	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeUnsupportedOperator, resp.Error.Code, "the ge filter is rejected before the aggregate")
}

func TestFromMongo_Golden(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewFromMongoCommand, stagesFixture)

	require.NoError(t, err)
	newGoldie(t).Assert(t, "from_mongo", []byte(out))
}

func TestFromMongo_JSON(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json"}, NewFromMongoCommand, stagesFixture)

	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	steps, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, steps, 3)
}

func TestBackends_Golden(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewBackendsCommand)

	require.NoError(t, err)
	newGoldie(t).Assert(t, "backends", []byte(out))
}

func TestBackends_Step(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewBackendsCommand, "--step", "aggregate")

	require.NoError(t, err)
	assert.Equal(t, "mongo36\nsqlite\n", out)
}

func TestBackends_UnknownStep(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewBackendsCommand, "--step", "pivot")

	require.Error(t, err)
	assert.Contains(t, out, "unknown step kind")
}

func TestValidate_Valid(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewValidateCommand, salesFixture)

	require.NoError(t, err)
	assert.Equal(t, "✓ Pipeline valid: 3 step(s)\n", out)
}

func TestValidate_Warnings(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "text"}, NewValidateCommand, incompleteFixture)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]: pipeline has 2 warning(s)")
	assert.Contains(t, out, "  - step 0 (select): pipeline should start with a domain step")
	assert.Contains(t, out, "  - step 1 (rename): missing newname")
}

func TestValidate_WarningsJSON(t *testing.T) {
	out, err := runCommand(t, &RootOptions{Format: "json"}, NewValidateCommand, incompleteFixture)

	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeInvalidPipeline, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
}
