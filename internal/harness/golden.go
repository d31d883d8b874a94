package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/filtersql/internal/ir"
)

// snapshot converts a result to a map for canonical JSON serialization.
// ir.MarshalCanonical only handles IR types and primitives.
func snapshot(name string, result *Result) map[string]any {
	cases := make([]any, len(result.Cases))
	for i, c := range result.Cases {
		m := map[string]any{"name": c.Name}
		ids := make([]any, len(c.IDs))
		for j, id := range c.IDs {
			ids[j] = id
		}
		m["ids"] = ids
		if c.Error != "" {
			m["error"] = c.Error
		}
		cases[i] = m
	}
	return map[string]any{
		"scenario": name,
		"cases":    cases,
	}
}

// RunWithGolden executes a scenario and compares its outcomes against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := ir.MarshalCanonical(snapshot(scenario.Name, result))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
