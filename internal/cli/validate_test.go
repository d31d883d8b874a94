package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Portable(t *testing.T) {
	out, err := execute(t, "", "validate", "--filter", `{"status": {"$in": ["a", "b"]}}`)
	require.NoError(t, err)
	assert.Contains(t, out, "valid (depth 1)")
	assert.Contains(t, out, "portable across dialects")
}

func TestValidate_Warnings(t *testing.T) {
	out, err := execute(t, "", "validate", "--format", "json", "--filter", `{"name": {"$regex": "^A"}, "age": 18}`)
	require.NoError(t, err)

	var res ValidateResult
	decodeData(t, decodeResponse(t, out), &res)
	assert.True(t, res.Valid)
	assert.False(t, res.Portable)
	assert.Equal(t, 2, res.Depth)
	assert.Len(t, res.Warnings, 2)
	assert.NotEmpty(t, res.Fingerprint)
}

func TestValidate_Strict(t *testing.T) {
	out, err := execute(t, "", "validate", "--strict", "--format", "json", "--filter", `{"name": {"$regex": "^A"}}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeNotPortable, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestValidate_StrictPortable(t *testing.T) {
	_, err := execute(t, "", "validate", "--strict", "--filter", `{"status": "active"}`)
	require.NoError(t, err)
}

func TestValidate_EmptyNegation(t *testing.T) {
	out, err := execute(t, "", "validate", "--format", "json", "--filter", `{"$not": {}}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeEmptyNegation, decodeResponse(t, out).Error.Code)
}

func TestValidate_MaxDepth(t *testing.T) {
	out, err := execute(t, "", "validate", "--format", "json", "--max-depth", "2",
		"--filter", `{"a": {"$elemMatch": {"b": {"$elemMatch": {"c": 1}}}}}`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDepthExceeded, decodeResponse(t, out).Error.Code)
}
