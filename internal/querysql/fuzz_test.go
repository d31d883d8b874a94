package querysql

import (
	"regexp"
	"strings"
	"testing"

	"github.com/roach88/filtersql/internal/queryir"
)

var anyPlaceholder = regexp.MustCompile(`\$\d+`)

// FuzzCompile checks determinism and placeholder/value alignment for every
// filter the parser accepts.
func FuzzCompile(f *testing.F) {
	seeds := []string{
		`{"status": "active"}`,
		`{"age": {"$gte": 18, "$lt": 65}}`,
		`{"tags": {"$in": ["a", "b", null]}}`,
		`{"items": {"$elemMatch": {"sku": "X", "qty": {"$gt": 0}}}}`,
		`{"$and": [{"c": 3}, {"$or": [{"a": 1}, {"b": 2}]}]}`,
		`{"$nor": [{"a": {"$regex": "x"}}], "t": {"$contains": "%_"}}`,
		`{"a": {"$not": {"$size": 2, "$exists": true}}}`,
		`{"tags": {"$all": ["x"]}, "n": {"$nin": [1, 2.5]}}`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		node, err := queryir.ParseJSON([]byte(input))
		if err != nil {
			return
		}

		for _, d := range dialects {
			first, err := Compile(node, d)
			if err != nil {
				if !queryir.IsFilterError(err) {
					t.Fatalf("%s: non-filter error %v", d.Name(), err)
				}
				continue
			}
			second, err := Compile(node, d)
			if err != nil {
				t.Fatalf("%s: second compile failed: %v", d.Name(), err)
			}
			if first.SQL != second.SQL || len(first.Values) != len(second.Values) {
				t.Fatalf("%s: nondeterministic output for %q", d.Name(), input)
			}

			var count int
			switch d.(type) {
			case Postgres:
				count = len(anyPlaceholder.FindAllString(first.SQL, -1))
			default:
				count = strings.Count(first.SQL, "?")
			}
			if count != len(first.Values) {
				t.Fatalf("%s: %d placeholders for %d values in %q", d.Name(), count, len(first.Values), first.SQL)
			}
		}
	})
}
