package querysql

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filtersql/internal/queryir"
)

func parse(t *testing.T, input string) queryir.Node {
	t.Helper()
	n, err := queryir.ParseJSON([]byte(input))
	require.NoError(t, err)
	return n
}

func TestCache_HitReturnsSameResult(t *testing.T) {
	c := NewCache(8)
	n := parse(t, `{"status": "active"}`)

	first, err := c.Compile(n, Postgres{})
	require.NoError(t, err)
	// A separately parsed, equal tree hits the same entry.
	second, err := c.Compile(parse(t, `{ "status" : "active" }`), Postgres{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_KeyIncludesDialectAndOptions(t *testing.T) {
	c := NewCache(8)
	n := parse(t, `{"status": "active"}`)

	full, err := c.Compile(n, Postgres{})
	require.NoError(t, err)
	embedded, err := c.Compile(n, SQLite{})
	require.NoError(t, err)
	other, err := c.Compile(n, SQLite{}, WithColumn("attrs"))
	require.NoError(t, err)

	assert.NotEqual(t, full.SQL, embedded.SQL)
	assert.NotEqual(t, embedded.SQL, other.SQL)
	assert.Equal(t, 3, c.Stats().Entries)
}

func TestCache_ValuesAreCopied(t *testing.T) {
	c := NewCache(8)
	n := parse(t, `{"status": "active"}`)

	first, err := c.Compile(n, SQLite{})
	require.NoError(t, err)
	first.Values[0] = "tampered"

	second, err := c.Compile(n, SQLite{})
	require.NoError(t, err)
	assert.Equal(t, []any{"active"}, second.Values)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	a := parse(t, `{"a": "1"}`)
	b := parse(t, `{"b": "1"}`)
	d := parse(t, `{"d": "1"}`)

	for _, n := range []queryir.Node{a, b, a, d} {
		_, err := c.Compile(n, SQLite{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Stats().Entries)

	// b was least recently used and is gone; a is still cached.
	before := c.Stats()
	_, err := c.Compile(a, SQLite{})
	require.NoError(t, err)
	assert.Equal(t, before.Hits+1, c.Stats().Hits)

	_, err = c.Compile(b, SQLite{})
	require.NoError(t, err)
	assert.Equal(t, before.Misses+1, c.Stats().Misses)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(8)

	_, err := c.Compile(queryir.Not(), Postgres{})
	require.Error(t, err)
	assert.True(t, queryir.IsEmptyNegation(err))
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_NilDialect(t *testing.T) {
	c := NewCache(8)

	assert.NotPanics(t, func() {
		_, err := c.Compile(parse(t, `{"a": 1}`), nil)
		assert.Error(t, err)
	})
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache(4)
	n := parse(t, `{"tags": {"$in": ["a", "b"]}}`)
	expected, err := Compile(n, Postgres{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := c.Compile(n, Postgres{})
			assert.NoError(t, err)
			assert.Equal(t, expected, r)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.Stats().Entries)
}
