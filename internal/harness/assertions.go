package harness

import (
	"fmt"
	"slices"
)

// check compares a case outcome with its expectation and returns a failure
// message, or "" when it matches.
func check(want Expect, got CaseResult) string {
	switch {
	case want.Error != "":
		if got.Error != want.Error {
			return fmt.Sprintf("expected error %s, got %s", want.Error, describeOutcome(got))
		}
	case got.Error != "":
		return fmt.Sprintf("unexpected filter error %s", got.Error)
	case want.Count != nil:
		if len(got.IDs) != *want.Count {
			return fmt.Sprintf("expected %d match(es), got %d %v", *want.Count, len(got.IDs), got.IDs)
		}
	default:
		if !slices.Equal(want.IDs, got.IDs) {
			return fmt.Sprintf("expected ids %v, got %v", want.IDs, got.IDs)
		}
	}
	return ""
}

func describeOutcome(got CaseResult) string {
	if got.Error != "" {
		return got.Error
	}
	return fmt.Sprintf("ids %v", got.IDs)
}
