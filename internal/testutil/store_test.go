package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/filtersql/internal/ir"
)

func TestSeedAndMatch(t *testing.T) {
	s := NewStore(t)
	ids := Seed(t, s, `{"n": 1}`, `{"n": 2}`)

	assert.Equal(t, []string{"doc-0001", "doc-0002"}, ids)
	assert.Equal(t, []string{"doc-0002"}, MatchIDs(t, s, `{"n": {"$gt": 1}}`))
}

func TestObject(t *testing.T) {
	obj := Object(t, `{"a": [1, "x"], "b": null}`)
	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRString("x")}, obj["a"])
	assert.Equal(t, ir.IRNull{}, obj["b"])
}
