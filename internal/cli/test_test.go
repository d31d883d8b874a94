package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingScenario = `name: wrong_expectation
description: The expectation names a row the filter cannot match.
rows:
  - id: r1
    doc: {status: active}
cases:
  - name: expects the wrong row
    filter: {status: active}
    expect:
      ids: [r2]
`

func TestTest_Scenarios(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata", "scenarios")

	out, err := execute(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  scenario_a_equality")
	assert.Contains(t, out, "scenarios passed")
	assert.NotContains(t, out, "FAIL")
}

func TestTest_Failure(t *testing.T) {
	path := writeFile(t, "wrong.yaml", failingScenario)

	out, err := execute(t, "", "test", filepath.Dir(path))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E301]")
	assert.Contains(t, out, "FAIL  wrong_expectation")
	assert.Contains(t, out, "expects the wrong row")
}

func TestTest_FailureJSON(t *testing.T) {
	path := writeFile(t, "wrong.yaml", failingScenario)

	out, err := execute(t, "", "test", "--format", "json", filepath.Dir(path))
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)

	var res TestResult
	data := CLIResponse{Data: resp.Error.Details}
	decodeData(t, data, &res)
	assert.False(t, res.Pass)
	require.Len(t, res.Scenarios, 1)
	require.Len(t, res.Scenarios[0].Failed, 1)
	assert.Equal(t, []string{"r1"}, res.Scenarios[0].Failed[0].IDs)
}

func TestTest_EmptyDir(t *testing.T) {
	out, err := execute(t, "", "test", "--format", "json", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}
