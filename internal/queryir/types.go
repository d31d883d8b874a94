package queryir

import (
	"strings"

	"github.com/roach88/filtersql/internal/ir"
)

// Node represents a parsed filter tree.
//
// This is a sealed interface - only Condition and Logical implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// A nil Node means "no filter": compilers emit an empty WHERE body.
type Node interface {
	filterNode() // Marker method - seals interface to this package
}

// OperatorTag is a field-level operator from the closed catalog.
type OperatorTag string

// Field operators.
const (
	OpEq        OperatorTag = "$eq"
	OpNe        OperatorTag = "$ne"
	OpGt        OperatorTag = "$gt"
	OpGte       OperatorTag = "$gte"
	OpLt        OperatorTag = "$lt"
	OpLte       OperatorTag = "$lte"
	OpIn        OperatorTag = "$in"
	OpNin       OperatorTag = "$nin"
	OpAll       OperatorTag = "$all"
	OpElemMatch OperatorTag = "$elemMatch"
	OpExists    OperatorTag = "$exists"
	OpSize      OperatorTag = "$size"
	OpContains  OperatorTag = "$contains"
	OpRegex     OperatorTag = "$regex"
)

// FieldOperators lists every field-level operator in catalog order.
var FieldOperators = []OperatorTag{
	OpEq, OpNe, OpGt, OpGte, OpLt, OpLte,
	OpIn, OpNin, OpAll, OpElemMatch,
	OpExists, OpSize, OpContains, OpRegex,
}

// IsValid reports whether op is in the closed field-operator catalog.
func (op OperatorTag) IsValid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte,
		OpIn, OpNin, OpAll, OpElemMatch,
		OpExists, OpSize, OpContains, OpRegex:
		return true
	}
	return false
}

// IsComparison reports whether op is one of the numeric range operators.
func (op OperatorTag) IsComparison() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// LogicalTag identifies a logical combinator.
type LogicalTag string

// Logical combinators.
const (
	LogicalAnd LogicalTag = "AND"
	LogicalOr  LogicalTag = "OR"
	LogicalNot LogicalTag = "NOT"
	LogicalNor LogicalTag = "NOR"
)

// Keys used for logical combinators in the filter object syntax.
const (
	KeyAnd = "$and"
	KeyOr  = "$or"
	KeyNot = "$not"
	KeyNor = "$nor"
)

// IsValid reports whether t is a known logical combinator.
func (t LogicalTag) IsValid() bool {
	switch t {
	case LogicalAnd, LogicalOr, LogicalNot, LogicalNor:
		return true
	}
	return false
}

// logicalKeys maps filter-object keys to their LogicalTag.
var logicalKeys = map[string]LogicalTag{
	KeyAnd: LogicalAnd,
	KeyOr:  LogicalOr,
	KeyNot: LogicalNot,
	KeyNor: LogicalNor,
}

// SafePath is a sanitized, ordered sequence of JSON key segments.
//
// SafePath values are produced only by Sanitize (or by rebasing inside
// $elemMatch, where an empty path denotes the array element itself). Every
// segment is identifier-safe and may be embedded in generated SQL.
type SafePath []string

// String returns the dotted form of the path.
func (p SafePath) String() string {
	return strings.Join(p, ".")
}

// IsRoot reports whether the path addresses the current document or element itself.
func (p SafePath) IsRoot() bool {
	return len(p) == 0
}

// Condition is a leaf predicate on one field.
//
// Semantics:
//
//	<Field> <Op> <Operand>
//
// Example:
//
//	Condition{Field: SafePath{"age"}, Op: OpGte, Operand: ir.IRInt(18)}
//
// For OpElemMatch, Operand is unused and Elem holds the sub-filter whose
// field paths are relative to a single array element. A nil Elem matches
// any element.
type Condition struct {
	Field   SafePath
	Op      OperatorTag
	Operand ir.IRValue
	Elem    Node
}

func (Condition) filterNode() {}

// Logical combines child nodes.
//
// Semantics:
//
//	AND: all children hold (empty = always true)
//	OR:  at least one child holds (empty = always false)
//	NOT: the implicit AND of Children does not hold (empty = compile error)
//	NOR: no child holds (empty = always true)
//
// Children are compiled left to right; their order is significant for
// placeholder numbering and output determinism.
type Logical struct {
	Op       LogicalTag
	Children []Node
}

func (Logical) filterNode() {}

// And builds an AND group.
func And(children ...Node) Logical {
	return Logical{Op: LogicalAnd, Children: children}
}

// Or builds an OR group.
func Or(children ...Node) Logical {
	return Logical{Op: LogicalOr, Children: children}
}

// Not builds a negation of the implicit AND of children.
func Not(children ...Node) Logical {
	return Logical{Op: LogicalNot, Children: children}
}

// Nor builds a NOR group.
func Nor(children ...Node) Logical {
	return Logical{Op: LogicalNor, Children: children}
}

// Field builds a Condition after sanitizing path.
func Field(path string, op OperatorTag, operand ir.IRValue) (Condition, error) {
	p, err := Sanitize(path)
	if err != nil {
		return Condition{}, err
	}
	c, err := Normalize(Condition{Field: p, Op: op, Operand: operand})
	if err != nil {
		return Condition{}, err
	}
	return c, nil
}

// MustField is like Field but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustField(path string, op OperatorTag, operand ir.IRValue) Condition {
	c, err := Field(path, op, operand)
	if err != nil {
		panic(err)
	}
	return c
}

// ElemMatch builds an $elemMatch condition with an already-parsed sub-filter.
func ElemMatch(path string, elem Node) (Condition, error) {
	p, err := Sanitize(path)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: p, Op: OpElemMatch, Elem: elem}, nil
}
