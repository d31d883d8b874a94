package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a --format json response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// decodeData re-decodes resp.Data into v.
func decodeData(t *testing.T, resp CLIResponse, v any) {
	t.Helper()

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"compile", "validate", "load", "query", "test"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "", "compile", "--format", "xml", "--filter", `{"a": 1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_InvalidDialect(t *testing.T) {
	out, err := execute(t, "", "compile", "--format", "json", "-d", "oracle", "--filter", `{"a": 1}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestRootCommand_EnvOverride(t *testing.T) {
	t.Setenv("FILTERSQL_DIALECT", "full")

	out, err := execute(t, "", "compile", "--filter", `{"status": "active"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"metadata" #>> '{"status"}' = $1`)
}

func TestRootCommand_FlagBeatsEnv(t *testing.T) {
	t.Setenv("FILTERSQL_DIALECT", "full")

	out, err := execute(t, "", "compile", "-d", "embedded", "--filter", `{"status": "active"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `json_extract("metadata", '$.status') = ?`)
}
