package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/store"
)

// NewStore opens a store in a per-test temp directory and closes it on cleanup.
func NewStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

// Object parses a JSON object literal, failing the test on error.
func Object(t testing.TB, input string) ir.IRObject {
	t.Helper()
	v, err := ir.UnmarshalIRValue([]byte(input))
	require.NoError(t, err, "parse %s", input)
	obj, ok := v.(ir.IRObject)
	require.True(t, ok, "%s is not a JSON object", input)
	return obj
}

// Filter parses a JSON filter, failing the test on error.
func Filter(t testing.TB, input string) queryir.Node {
	t.Helper()
	n, err := queryir.ParseJSON([]byte(input))
	require.NoError(t, err, "parse filter %s", input)
	return n
}

// Seed inserts rows (JSON object literals) with ids doc-0001, doc-0002, ...
// and returns the ids in order.
func Seed(t testing.TB, s *store.Store, rows ...string) []string {
	t.Helper()
	ids := NewSequentialIDs("doc")
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		id := ids.Generate()
		require.NoError(t, s.InsertWithID(context.Background(), id, Object(t, row)))
		out = append(out, id)
	}
	return out
}

// MatchIDs runs filter against s and returns the matching ids.
func MatchIDs(t testing.TB, s *store.Store, filter string) []string {
	t.Helper()
	ids, err := s.FindIDs(context.Background(), Filter(t, filter))
	require.NoError(t, err, "find %s", filter)
	return ids
}
