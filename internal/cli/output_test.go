package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filtersql/internal/queryir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONNoHTMLEscape(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(CompileResult{SQL: "a <> b"}))
	assert.Contains(t, buf.String(), "a <> b")
}

func TestOutputFormatter_TextRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(CompileResult{SQL: "x = ?", Values: []any{int64(3)}}))
	assert.Equal(t, "x = ?\n  1: 3\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E002", "read failed", map[string]string{"path": "x"}))
	assert.Equal(t, "Error [E002]: read failed\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E002", "read failed", map[string]string{"path": "x"}))
	assert.Contains(t, buf.String(), "Details: map[path:x]")
}

func TestOutputFormatter_FailFilterError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := fmt.Errorf("wrapped: %w", queryir.NewInvalidFieldPath("a b", "segment contains space"))
	err := formatter.Fail(ErrCodeGeneric, "compile filter", cause)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidFieldPath, resp.Error.Code)
	details := resp.Error.Details.(map[string]any)
	assert.Equal(t, string(queryir.ErrCodeInvalidFieldPath), details["kind"])
	assert.Equal(t, "a b", details["path"])
	assert.NotContains(t, details, "operator")
}

func TestOutputFormatter_FailOtherError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := errors.New("disk full")
	err := formatter.Fail(ErrCodeStoreFailed, "insert document", cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeStoreFailed, resp.Error.Code)
	assert.Equal(t, "insert document: disk full", resp.Error.Message)
}

func TestFilterErrorCodes_Complete(t *testing.T) {
	for _, code := range []queryir.ErrorCode{
		queryir.ErrCodeInvalidFieldPath,
		queryir.ErrCodeUnsupportedOperator,
		queryir.ErrCodeEmptyNegation,
		queryir.ErrCodeTypeMismatch,
		queryir.ErrCodeDepthExceeded,
	} {
		assert.NotEmpty(t, filterErrorCodes[code], "no CLI code for %s", code)
	}
}

func TestVerboseLog(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", errors.New("y"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "x: y", WrapExitError(ExitFailure, "x", errors.New("y")).Error())
}
