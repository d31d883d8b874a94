package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filtersql/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.InsertWithID(context.Background(), "a", ir.IRObject{"x": ir.IRInt(1)}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestInsert_GeneratesSortableIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, ir.IRObject{"n": ir.IRInt(1)})
	require.NoError(t, err)
	second, err := s.Insert(ctx, ir.IRObject{"n": ir.IRInt(2)})
	require.NoError(t, err)

	assert.Len(t, first, 36)
	ids, err := s.FindIDs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, ids)
}

func TestInsertWithID_Upserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertWithID(ctx, "a", ir.IRObject{"v": ir.IRString("old")}))
	require.NoError(t, s.InsertWithID(ctx, "a", ir.IRObject{"v": ir.IRString("new")}))

	doc, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("new"), doc.Metadata["v"])

	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertWithID_EmptyID(t *testing.T) {
	s := openTestStore(t)
	err := s.InsertWithID(context.Background(), "", ir.IRObject{})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestGet_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	meta := ir.IRObject{
		"name":  ir.IRString("widget"),
		"price": ir.IRFloat(9.5),
		"tags":  ir.IRArray{ir.IRString("a"), ir.IRNull{}},
		"dims":  ir.IRObject{"w": ir.IRInt(2), "on": ir.IRBool(true)},
	}
	require.NoError(t, s.InsertWithID(ctx, "w1", meta))

	doc, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, Document{ID: "w1", Metadata: meta}, doc)
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertWithID(ctx, "a", ir.IRObject{}))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFind_EmptyStoreReturnsEmptySlice(t *testing.T) {
	s := openTestStore(t)
	docs, err := s.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestRegexpMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern any
		value   any
		want    any
	}{
		{"text match", "^A", "Alice", true},
		{"blob no match", "^A", []byte("Bob"), false},
		{"integer as text", "^1", int64(12), true},
		{"real as text", `^2\.5$`, 2.5, true},
		{"null stays null", "^A", nil, nil},
		{"nil blob is null", "", []byte(nil), nil},
		{"empty blob is empty text", "^$", []byte{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := regexpMatch(tt.pattern, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := regexpMatch("(", "x")
	assert.Error(t, err)

	_, err = regexpMatch(int64(1), "x")
	assert.Error(t, err)
}

func TestRegexpFunction_NullInNullOut(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var isNull bool
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT regexp('x', NULL) IS NULL").Scan(&isNull))
	assert.True(t, isNull)

	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT json_extract('{}', '$.name') REGEXP '' IS NULL`).Scan(&isNull))
	assert.True(t, isNull, "missing field must not match or fail a regex")
}

func TestFind_OrdersByIDBytes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"b", "a", "B", "_"} {
		require.NoError(t, s.InsertWithID(ctx, id, ir.IRObject{"x": ir.IRInt(1)}))
	}

	ids, err := s.FindIDs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "_", "a", "b"}, ids)
}

func TestMarshalMetadata_Canonical(t *testing.T) {
	got, err := marshalMetadata(ir.IRObject{"b": ir.IRInt(1), "a": ir.IRString("x")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1}`, got)

	got, err = marshalMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}

func TestUnmarshalMetadata_RejectsNonObject(t *testing.T) {
	_, err := unmarshalMetadata(`[1]`)
	assert.Error(t, err)
}
