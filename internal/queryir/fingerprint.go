package queryir

import (
	"fmt"

	"github.com/roach88/filtersql/internal/ir"
)

// Describe converts a filter tree into a plain IR value.
//
// Child and member order is kept in arrays, so two trees describe equally
// exactly when they compile to the same SQL. A nil Node describes as null.
func Describe(n Node) (ir.IRValue, error) {
	switch node := n.(type) {
	case nil:
		return ir.IRNull{}, nil
	case Condition:
		return describeCondition(node)
	case *Condition:
		return describeCondition(*node)
	case Logical:
		return describeLogical(node)
	case *Logical:
		return describeLogical(*node)
	default:
		return nil, fmt.Errorf("unsupported node type: %T", n)
	}
}

func describeCondition(c Condition) (ir.IRValue, error) {
	path := make(ir.IRArray, len(c.Field))
	for i, seg := range c.Field {
		path[i] = ir.IRString(seg)
	}

	obj := ir.IRObject{
		"path": path,
		"op":   ir.IRString(c.Op),
	}
	if c.Operand != nil {
		obj["operand"] = c.Operand
	}
	if c.Elem != nil {
		elem, err := Describe(c.Elem)
		if err != nil {
			return nil, err
		}
		obj["elem"] = elem
	}
	return obj, nil
}

func describeLogical(l Logical) (ir.IRValue, error) {
	children := make(ir.IRArray, len(l.Children))
	for i, child := range l.Children {
		d, err := Describe(child)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children[i] = d
	}
	return ir.IRObject{
		"logical":  ir.IRString(l.Op),
		"children": children,
	}, nil
}

// Fingerprint returns a content hash of a filter tree. Compilation is a pure
// function of the tree and dialect, so the fingerprint is a valid cache key.
func Fingerprint(n Node) (string, error) {
	d, err := Describe(n)
	if err != nil {
		return "", err
	}
	return ir.Hash(ir.DomainFilter, d)
}

// Depth returns the nesting depth of a filter tree: 0 for nil, 1 for a
// single condition, plus one per logical group or $elemMatch level.
func Depth(n Node) int {
	switch node := n.(type) {
	case Condition:
		return conditionDepth(node)
	case *Condition:
		return conditionDepth(*node)
	case Logical:
		return logicalDepth(node)
	case *Logical:
		return logicalDepth(*node)
	default:
		return 0
	}
}

func conditionDepth(c Condition) int {
	if c.Elem == nil {
		return 1
	}
	return 1 + Depth(c.Elem)
}

func logicalDepth(l Logical) int {
	deepest := 0
	for _, child := range l.Children {
		deepest = max(deepest, Depth(child))
	}
	return 1 + deepest
}
