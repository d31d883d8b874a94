package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		inline string
		data   string
		want   string
	}{
		{"f.json", "", "a: 1", FormatJSON},
		{"f.YML", "", "{}", FormatYAML},
		{"f.cue", "", "a: 1", FormatCUE},
		{"f.jsonl", "", "", FormatJSON},
		{"-", "", "  {\"a\": 1}", FormatJSON},
		{"-", "", "a: 1", FormatYAML},
		{"f.cue", `{"a": 1}`, `{"a": 1}`, FormatJSON},
		{"", "a: 1", "a: 1", FormatYAML},
	}

	for _, tt := range tests {
		got := detectFormat(tt.path, tt.inline, []byte(tt.data))
		assert.Equal(t, tt.want, got, "path=%q inline=%q", tt.path, tt.inline)
	}
}

func TestLoadFilter_Inline(t *testing.T) {
	node, err := LoadFilter(FilterSource{Inline: `{"a": {"$gt": 1}}`}, strings.NewReader(""))
	require.NoError(t, err)

	c, ok := node.(queryir.Condition)
	require.True(t, ok)
	assert.Equal(t, queryir.OpGt, c.Op)
}

func TestLoadFilter_EmptyStdin(t *testing.T) {
	node, err := LoadFilter(FilterSource{Path: "-"}, strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestLoadFilter_ExplicitFormat(t *testing.T) {
	_, err := LoadFilter(FilterSource{Inline: "a: 1", Format: FormatJSON}, strings.NewReader(""))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParseFailed, le.Code)

	_, err = LoadFilter(FilterSource{Inline: "a: 1", Format: "toml"}, strings.NewReader(""))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeGeneric, le.Code)
}

func TestLoadFilter_CUE(t *testing.T) {
	src := `
_min: 18
age: {"$gte": _min}
status: "active"
`
	node, err := LoadFilter(FilterSource{Path: writeFile(t, "f.cue", src)}, nil)
	require.NoError(t, err)

	l, ok := node.(queryir.Logical)
	require.True(t, ok)
	assert.Len(t, l.Children, 2)
}

func TestLoadFilter_CUEErrors(t *testing.T) {
	tests := map[string]string{
		"conflict":     "a: 1\na: 2\n",
		"not concrete": "a: int\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFilter(FilterSource{Path: writeFile(t, "f.cue", src)}, nil)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeCUEFailed, le.Code)
		})
	}
}

func TestLoadFilter_FilterErrorPassesThrough(t *testing.T) {
	_, err := LoadFilter(FilterSource{Inline: `{"$where": "1"}`}, nil)
	require.Error(t, err)
	assert.True(t, queryir.IsFilterError(err))
}

func TestLoadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    int
	}{
		{"json array", "d.json", `[{"a": 1}, {"a": 2}]`, 2},
		{"json lines", "d.jsonl", "{\"a\": 1}\n\n{\"a\": 2}\n{\"a\": 3}\n", 3},
		{"yaml sequence", "d.yaml", "- a: 1\n- a: 2\n", 2},
		{"yaml stream", "d.yaml", "a: 1\n---\na: 2\n", 2},
		{"cue list", "d.cue", "[{a: 1}, {a: 2}]\n", 2},
		{"empty", "d.jsonl", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := LoadDocuments(writeFile(t, tt.file, tt.content), FormatAuto, nil)
			require.NoError(t, err)
			require.Len(t, docs, tt.want)
			if tt.want > 0 {
				assert.Equal(t, ir.IRInt(1), docs[0]["a"])
			}
		})
	}
}

func TestLoadDocuments_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"scalar in array", "d.json", `[1]`},
		{"bad json line", "d.jsonl", "{\"a\": 1}\n{\"a\": \n"},
		{"array line", "d.jsonl", "[1]\n"},
		{"yaml scalar item", "d.yaml", "- 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(writeFile(t, tt.file, tt.content), FormatAuto, nil)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeParseFailed, le.Code)
		})
	}
}
