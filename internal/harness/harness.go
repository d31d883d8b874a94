package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. The
// returned error covers setup problems (bad fixture rows, store failures);
// case mismatches are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, row := range scenario.Rows {
		obj, err := queryir.FromYAMLNode(&row.Doc)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
		if err := st.InsertWithID(ctx, row.ID, obj.IR()); err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		result.AddCase(runCase(ctx, st, c))
	}
	return result, nil
}

func runCase(ctx context.Context, st *store.Store, c Case) CaseResult {
	out := CaseResult{Name: c.Name}

	ids, err := find(ctx, st, c)
	if err != nil {
		var fe *queryir.FilterError
		if !errors.As(err, &fe) {
			out.Error = err.Error()
			out.Failure = fmt.Sprintf("unexpected error: %v", err)
			return out
		}
		out.Error = string(fe.Code)
	}
	out.IDs = ids
	out.Failure = check(c.Expect, out)
	return out
}

func find(ctx context.Context, st *store.Store, c Case) ([]string, error) {
	obj, err := queryir.FromYAMLNode(&c.Filter)
	if err != nil {
		return nil, err
	}
	node, err := queryir.Parse(obj)
	if err != nil {
		return nil, err
	}
	return st.FindIDs(ctx, node)
}
