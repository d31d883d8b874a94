package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryJSONL = `{"sku": "a", "qty": 5, "tags": ["x"]}
{"sku": "b", "qty": 0}

{"qty": 3}
`

func loadInventory(t *testing.T) string {
	t.Helper()

	db := filepath.Join(t.TempDir(), "docs.db")
	path := writeFile(t, "docs.jsonl", inventoryJSONL)

	out, err := execute(t, "", "load", "--db", db, "--id-field", "sku", "--format", "json", path)
	require.NoError(t, err)

	var res LoadResult
	decodeData(t, decodeResponse(t, out), &res)
	require.Equal(t, 3, res.Inserted)
	assert.Equal(t, "a", res.IDs[0])
	assert.Equal(t, "b", res.IDs[1])
	assert.Len(t, res.IDs[2], 36, "generated ids are UUIDs")
	return db
}

func TestLoad_QueryRoundTrip(t *testing.T) {
	db := loadInventory(t)

	out, err := execute(t, "", "query", "--db", db, "--count", "--filter", `{"qty": {"$gt": 0}}`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, "", "query", "--db", db, "--format", "json", "--filter", `{"sku": {"$in": ["b", "a"]}}`)
	require.NoError(t, err)

	var res QueryResult
	decodeData(t, decodeResponse(t, out), &res)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "a", res.Documents[0].ID)
	assert.Equal(t, "b", res.Documents[1].ID)
}

func TestLoad_ReplacesByID(t *testing.T) {
	db := loadInventory(t)
	path := writeFile(t, "update.json", `[{"sku": "a", "qty": 0}]`)

	_, err := execute(t, "", "load", "--db", db, "--id-field", "sku", path)
	require.NoError(t, err)

	out, err := execute(t, "", "query", "--db", db, "--count", "--filter", `{"qty": 0}`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestLoad_YAMLStdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")

	out, err := execute(t, "- {k: 1}\n- {k: 2}\n", "load", "--db", db, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 2 documents (embedded)")

	out, err = execute(t, "", "query", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, `{"k":1}`)
	assert.Contains(t, out, `{"k":2}`)
}

func TestLoad_NonStringID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	path := writeFile(t, "docs.json", `[{"sku": 5}]`)

	out, err := execute(t, "", "load", "--db", db, "--id-field", "sku", "--format", "json", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeStoreFailed, decodeResponse(t, out).Error.Code)
}

func TestLoad_NotAnObject(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	path := writeFile(t, "docs.json", `[{"a": 1}, 2]`)

	out, err := execute(t, "", "load", "--db", db, "--format", "json", path)
	require.Error(t, err)
	assert.Equal(t, ErrCodeParseFailed, decodeResponse(t, out).Error.Code)
}

func TestQuery_RejectedFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")

	out, err := execute(t, "", "query", "--db", db, "--format", "json", "--filter", `{"a": {"$size": -1}}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeTypeMismatch, decodeResponse(t, out).Error.Code)
}

func TestQuery_FullWithoutDSN(t *testing.T) {
	out, err := execute(t, "", "query", "-d", "full", "--format", "json", "--filter", `{"a": 1}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeStoreFailed, decodeResponse(t, out).Error.Code)
}
