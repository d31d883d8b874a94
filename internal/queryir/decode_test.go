package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/filtersql/internal/ir"
)

func TestDecodeJSON_PreservesOrder(t *testing.T) {
	obj, err := DecodeJSON([]byte(`{"z": 1, "a": {"y": true, "b": null}, "m": [1.5, "x"]}`))
	require.NoError(t, err)

	expected := Object{
		{Key: "z", Value: ir.IRInt(1)},
		{Key: "a", Value: Object{
			{Key: "y", Value: ir.IRBool(true)},
			{Key: "b", Value: ir.IRNull{}},
		}},
		{Key: "m", Value: []any{ir.IRFloat(1.5), ir.IRString("x")}},
	}
	assert.Equal(t, expected, obj)
}

func TestDecodeJSON_IntegralFloatFoldsToInt(t *testing.T) {
	obj, err := DecodeJSON([]byte(`{"a": 3.0, "b": 1e2}`))
	require.NoError(t, err)

	a, _ := obj.Get("a")
	b, _ := obj.Get("b")
	assert.Equal(t, ir.IRInt(3), a)
	assert.Equal(t, ir.IRInt(100), b)
}

func TestDecodeJSON_EmptyContainers(t *testing.T) {
	obj, err := DecodeJSON([]byte(`{"a": {}, "b": []}`))
	require.NoError(t, err)

	a, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, Object{}, a)

	b, ok := obj.Get("b")
	require.True(t, ok)
	assert.Equal(t, []any{}, b)

	_, ok = obj.Get("c")
	assert.False(t, ok)
}

func TestNewObject_RepeatedKeys(t *testing.T) {
	obj := NewObject(
		Member{Key: "a", Value: ir.IRInt(1)},
		Member{Key: "b", Value: ir.IRInt(2)},
		Member{Key: "a", Value: ir.IRInt(3)},
	)

	assert.Equal(t, Object{
		{Key: "a", Value: ir.IRInt(3)},
		{Key: "b", Value: ir.IRInt(2)},
	}, obj)
}

func TestDecodeYAML_AnchorsAndOrder(t *testing.T) {
	input := `
base: &tag red
color: *tag
count: 2
`
	obj, err := DecodeYAML([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, Object{
		{Key: "base", Value: ir.IRString("red")},
		{Key: "color", Value: ir.IRString("red")},
		{Key: "count", Value: ir.IRInt(2)},
	}, obj)
}

func TestDecodeYAML_NotMapping(t *testing.T) {
	_, err := DecodeYAML([]byte("- a\n- b\n"))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestFromYAMLNode_MappingNode(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("filter:\n  status: active\n"), &doc))

	// Scenario files embed filters as a nested mapping.
	filterNode := doc.Content[0].Content[1]
	obj, err := FromYAMLNode(filterNode)
	require.NoError(t, err)
	assert.Equal(t, Object{{Key: "status", Value: ir.IRString("active")}}, obj)
}

func TestFromMap_IRValues(t *testing.T) {
	obj, err := FromMap(map[string]any{
		"b": ir.IRObject{"y": ir.IRInt(1), "x": ir.IRInt(2)},
		"a": ir.IRArray{ir.IRString("s")},
	})
	require.NoError(t, err)

	assert.Equal(t, Object{
		{Key: "a", Value: []any{ir.IRString("s")}},
		{Key: "b", Value: Object{
			{Key: "x", Value: ir.IRInt(2)},
			{Key: "y", Value: ir.IRInt(1)},
		}},
	}, obj)
}

func TestObject_IR(t *testing.T) {
	obj, err := DecodeJSON([]byte(`{"b": [1, {"c": null}], "a": "x"}`))
	require.NoError(t, err)

	assert.Equal(t, ir.IRObject{
		"a": ir.IRString("x"),
		"b": ir.IRArray{ir.IRInt(1), ir.IRObject{"c": ir.IRNull{}}},
	}, obj.IR())
	assert.Equal(t, ir.IRObject{}, Object(nil).IR())
}
