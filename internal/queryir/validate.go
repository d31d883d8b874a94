package queryir

import (
	"fmt"

	"github.com/roach88/filtersql/internal/ir"
)

// ValidationResult contains portability analysis of a filter.
//
// A portable filter returns the same rows on the full (PostgreSQL) and
// embedded (SQLite) dialects. Non-portable filters still compile and run on
// both; the warnings describe where the two backends can disagree.
type ValidationResult struct {
	// IsPortable indicates if the filter uses only dialect-neutral features.
	IsPortable bool

	// Warnings lists non-portable features used in the filter.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks a parsed filter for cross-dialect portability.
//
// Portability rules:
//  1. $regex uses each backend's native regex engine (POSIX on full, Go RE2
//     on embedded); no option set is standardised
//  2. $contains with a string folds case with ILIKE on full but only ASCII
//     case with LIKE on embedded
//  3. Equality on non-string scalars compares text on full and typed values
//     on embedded, so a stored "1" matches 1 only on full
//  4. Float equality depends on each backend's number-to-text rendering
//
// Validate is a pure function with no side effects.
func Validate(node Node) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateNode(node, "")

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validateNode recursively validates a filter node. prefix is the dotted path
// of the enclosing $elemMatch, used only in messages.
func (v *validator) validateNode(n Node, prefix string) {
	if n == nil {
		return // no filter
	}

	switch node := n.(type) {
	case Condition:
		v.validateCondition(node, prefix)
	case *Condition:
		v.validateCondition(*node, prefix)
	case Logical:
		v.validateLogical(node, prefix)
	case *Logical:
		v.validateLogical(*node, prefix)
	default:
		v.addWarning("Unknown node type: %T - portability cannot be verified", n)
	}
}

func (v *validator) validateLogical(l Logical, prefix string) {
	for _, child := range l.Children {
		v.validateNode(child, prefix)
	}
}

func (v *validator) validateCondition(c Condition, prefix string) {
	field := joinPath(prefix, c.Field)

	switch c.Op {
	case OpRegex:
		// Rule 1
		v.addWarning("Field '%s' uses $regex - pattern syntax and flags differ between dialects", field)

	case OpContains:
		if _, ok := c.Operand.(ir.IRString); ok {
			// Rule 2
			v.addWarning("Field '%s' uses $contains on a string - case folding of non-ASCII text differs between dialects", field)
			return
		}
		v.validateEquality(field, c.Op, c.Operand)

	case OpEq, OpNe, OpIn, OpNin, OpAll:
		v.validateEquality(field, c.Op, c.Operand)

	case OpElemMatch:
		if c.Elem != nil {
			v.validateNode(c.Elem, field)
		}
	}
}

// validateEquality applies rules 3 and 4 to every scalar in the operand.
func (v *validator) validateEquality(field string, op OperatorTag, operand ir.IRValue) {
	values := []ir.IRValue{operand}
	if arr, ok := operand.(ir.IRArray); ok {
		values = arr
	}

	for _, val := range values {
		switch val.(type) {
		case ir.IRInt:
			// Rule 3
			v.addWarning("Field '%s' %s compares an int - full dialect compares text, embedded compares typed values", field, op)
			return
		case ir.IRBool:
			// Rule 3
			v.addWarning("Field '%s' %s compares a bool - full dialect compares text, embedded compares typed values", field, op)
			return
		case ir.IRFloat:
			// Rule 4
			v.addWarning("Field '%s' %s compares a float - number formatting differs between dialects", field, op)
			return
		}
	}
}

func joinPath(prefix string, p SafePath) string {
	switch {
	case prefix == "":
		return p.String()
	case p.IsRoot():
		return prefix + "[]"
	default:
		return prefix + "[]." + p.String()
	}
}
