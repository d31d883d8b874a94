package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/filtersql/internal/ir"
)

// Parse converts a filter object into a Node.
//
// Parse is the validation boundary: anything outside the operator catalog,
// any unsafe field key, and any operand of the wrong shape is rejected here
// with a FilterError, so compilers only ever see well-formed trees.
//
// Rules:
//   - Members are handled in Object order; more than one member is an implicit AND.
//   - $and, $or, $nor take arrays of objects; $not takes a non-empty object.
//   - A field mapped to a scalar or array is shorthand for $eq.
//   - A field mapped to an object must use operator keys only; several
//     operators on one field are ANDed.
//   - An empty top-level object means "no filter" and returns a nil Node.
func Parse(obj Object) (Node, error) {
	if len(obj) == 0 {
		return nil, nil
	}
	p := &parser{}
	return p.parseGroup(obj, "")
}

// ParseJSON decodes and parses a JSON filter object.
func ParseJSON(data []byte) (Node, error) {
	obj, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return Parse(obj)
}

// ParseYAML decodes and parses a YAML filter mapping.
func ParseYAML(data []byte) (Node, error) {
	obj, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return Parse(obj)
}

// ParseMap parses a native Go map. Sibling keys are processed in sorted order.
func ParseMap(m map[string]any) (Node, error) {
	obj, err := FromMap(m)
	if err != nil {
		return nil, NewTypeMismatch("", "", "%v", err)
	}
	return Parse(obj)
}

// parser carries the rebasing context while walking a filter object.
type parser struct {
	// elemDepth is > 0 while parsing inside $elemMatch, where operator keys
	// at group level apply to the array element itself.
	elemDepth int
}

// parseGroup parses an object whose members are implicitly ANDed.
// An empty object yields an empty AND (always true).
func (p *parser) parseGroup(obj Object, at string) (Node, error) {
	nodes, err := p.parseMembers(obj, at)
	if err != nil {
		return nil, err
	}
	return combine(nodes), nil
}

// parseMembers parses each member of a group into a node, in order.
func (p *parser) parseMembers(obj Object, at string) ([]Node, error) {
	nodes := make([]Node, 0, len(obj))
	var elemOps Object

	for _, m := range obj {
		if !isOperatorKey(m.Key) {
			path, err := Sanitize(m.Key)
			if err != nil {
				return nil, err
			}
			n, err := p.parseField(path, m.Value)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}

		if tag, ok := logicalKeys[m.Key]; ok {
			n, err := p.parseLogical(tag, m.Key, m.Value, at)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}

		op := OperatorTag(m.Key)
		switch {
		case op.IsValid() && p.elemDepth > 0:
			// {$elemMatch: {$gte: 80}} tests the element itself.
			elemOps = append(elemOps, m)
		case op.IsValid():
			return nil, NewUnsupportedOperator(at, m.Key, "field operator must be applied to a field")
		default:
			return nil, NewUnsupportedOperator(at, m.Key, "unknown operator")
		}
	}

	if len(elemOps) > 0 {
		n, err := p.parseOperators(SafePath{}, elemOps)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// parseLogical parses a $and/$or/$nor/$not member.
func (p *parser) parseLogical(tag LogicalTag, key string, value any, at string) (Node, error) {
	if tag == LogicalNot {
		obj, ok := value.(Object)
		if !ok {
			return nil, NewTypeMismatch(at, key, "$not expects an object of conditions, got %s", rawTypeName(value))
		}
		if len(obj) == 0 {
			return nil, NewEmptyNegation(at)
		}
		children, err := p.parseMembers(obj, at)
		if err != nil {
			return nil, err
		}
		return Logical{Op: LogicalNot, Children: children}, nil
	}

	arr, ok := value.([]any)
	if !ok {
		return nil, NewTypeMismatch(at, key, "%s expects an array of objects, got %s", key, rawTypeName(value))
	}

	children := make([]Node, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(Object)
		if !ok {
			return nil, NewTypeMismatch(at, key, "%s[%d] must be an object, got %s", key, i, rawTypeName(elem))
		}
		child, err := p.parseGroup(obj, at)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return Logical{Op: tag, Children: children}, nil
}

// parseField parses the value mapped to a sanitized field path.
func (p *parser) parseField(path SafePath, value any) (Node, error) {
	obj, ok := value.(Object)
	if !ok {
		// Scalar or array: shorthand for $eq.
		return Normalize(Condition{Field: path, Op: OpEq, Operand: valueOf(value)})
	}

	if len(obj) == 0 {
		return nil, NewTypeMismatch(path.String(), "", "empty object operand; use operator keys or a dotted path")
	}

	operators := 0
	for _, m := range obj {
		if isOperatorKey(m.Key) {
			operators++
		}
	}
	if operators == 0 {
		return nil, NewTypeMismatch(path.String(), "", "object operand without operators; use a dotted path such as %q", path.String()+"."+obj[0].Key)
	}
	if operators != len(obj) {
		return nil, NewTypeMismatch(path.String(), "", "operand mixes operator keys and field keys")
	}

	return p.parseOperators(path, obj)
}

// parseOperators parses an all-operator object applied to one path.
// Multiple operators are compiled independently and ANDed.
func (p *parser) parseOperators(path SafePath, obj Object) (Node, error) {
	nodes := make([]Node, 0, len(obj))
	for _, m := range obj {
		n, err := p.parseOperator(path, m.Key, m.Value)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return combine(nodes), nil
}

// parseOperator parses a single operator applied to path.
func (p *parser) parseOperator(path SafePath, key string, value any) (Node, error) {
	switch {
	case key == KeyNot:
		return p.parseFieldNot(path, value)
	case logicalKeys[key] != "":
		return nil, NewUnsupportedOperator(path.String(), key, "logical operator is not valid on a field")
	}

	op := OperatorTag(key)
	if !op.IsValid() {
		return nil, NewUnsupportedOperator(path.String(), key, "unknown operator")
	}

	if op == OpElemMatch {
		obj, ok := value.(Object)
		if !ok {
			return nil, NewTypeMismatch(path.String(), key, "$elemMatch expects an object of conditions, got %s", rawTypeName(value))
		}
		return p.parseElemMatch(path, obj)
	}

	return Normalize(Condition{Field: path, Op: op, Operand: valueOf(value)})
}

// parseFieldNot parses {field: {$not: {ops}}}: the negation of the ANDed operators.
func (p *parser) parseFieldNot(path SafePath, value any) (Node, error) {
	obj, ok := value.(Object)
	if !ok {
		return nil, NewTypeMismatch(path.String(), KeyNot, "$not expects an object of operators, got %s", rawTypeName(value))
	}
	if len(obj) == 0 {
		return nil, NewEmptyNegation(path.String())
	}
	for _, m := range obj {
		if !isOperatorKey(m.Key) {
			return nil, NewTypeMismatch(path.String(), KeyNot, "field-level $not accepts operator keys only, got %q", m.Key)
		}
	}

	children := make([]Node, 0, len(obj))
	for _, m := range obj {
		n, err := p.parseOperator(path, m.Key, m.Value)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return Logical{Op: LogicalNot, Children: children}, nil
}

// parseElemMatch parses the sub-filter of $elemMatch with paths rebased onto
// the array element.
func (p *parser) parseElemMatch(path SafePath, obj Object) (Node, error) {
	c := Condition{Field: path, Op: OpElemMatch}
	if len(obj) == 0 {
		return c, nil
	}

	p.elemDepth++
	defer func() { p.elemDepth-- }()

	sub, err := p.parseGroup(obj, path.String())
	if err != nil {
		return nil, err
	}
	c.Elem = sub
	return c, nil
}

// normalize validates a Condition's operand against its operator and applies
// operand coercions (scalar to one-element array for set operators).
func Normalize(c Condition) (Condition, error) {
	at := c.Field.String()
	op := string(c.Op)
	for _, seg := range c.Field {
		if !IsIdentifier(seg) {
			return c, NewInvalidFieldPath(at, fmt.Sprintf("segment %q is not identifier-safe", seg))
		}
	}
	if c.Operand == nil {
		c.Operand = ir.IRNull{}
	}

	switch c.Op {
	case OpEq, OpNe:
		if _, ok := c.Operand.(ir.IRObject); ok {
			return c, NewTypeMismatch(at, op, "%s does not accept an object operand; use dotted paths", op)
		}

	case OpGt, OpGte, OpLt, OpLte:
		if !ir.IsNumeric(c.Operand) {
			return c, NewTypeMismatch(at, op, "%s expects a number, got %s", op, ir.TypeName(c.Operand))
		}

	case OpIn, OpNin, OpAll:
		arr, ok := c.Operand.(ir.IRArray)
		if !ok {
			if !ir.IsScalar(c.Operand) {
				return c, NewTypeMismatch(at, op, "%s expects an array of scalars, got %s", op, ir.TypeName(c.Operand))
			}
			arr = ir.IRArray{c.Operand}
		}
		if err := scalarsOnly(arr, at, op); err != nil {
			return c, err
		}
		c.Operand = arr

	case OpExists:
		if _, ok := c.Operand.(ir.IRBool); !ok {
			return c, NewTypeMismatch(at, op, "$exists expects a boolean, got %s", ir.TypeName(c.Operand))
		}

	case OpSize:
		n, ok := c.Operand.(ir.IRInt)
		if !ok || n < 0 {
			return c, NewTypeMismatch(at, op, "$size expects a non-negative integer, got %s", describe(c.Operand))
		}

	case OpRegex:
		if _, ok := c.Operand.(ir.IRString); !ok {
			return c, NewTypeMismatch(at, op, "$regex expects a string pattern, got %s", ir.TypeName(c.Operand))
		}

	case OpContains:
		switch v := c.Operand.(type) {
		case ir.IRObject:
			return c, NewTypeMismatch(at, op, "$contains does not accept an object operand")
		case ir.IRArray:
			if err := scalarsOnly(v, at, op); err != nil {
				return c, err
			}
		}

	case OpElemMatch:
		if c.Elem == nil {
			if _, ok := c.Operand.(ir.IRNull); ok {
				// {$elemMatch: {}}: any element matches.
				c.Operand = nil
				return c, nil
			}
			obj, ok := c.Operand.(ir.IRObject)
			if !ok {
				return c, NewTypeMismatch(at, op, "$elemMatch expects an object of conditions, got %s", ir.TypeName(c.Operand))
			}
			raw, err := fromGoValue(obj)
			if err != nil {
				return c, NewTypeMismatch(at, op, "%v", err)
			}
			p := &parser{}
			n, err := p.parseElemMatch(c.Field, raw.(Object))
			if err != nil {
				return c, err
			}
			return n.(Condition), nil
		}
		c.Operand = nil

	default:
		return c, NewUnsupportedOperator(at, op, "unknown operator")
	}

	return c, nil
}

// scalarsOnly rejects nested arrays and objects inside a set operand.
func scalarsOnly(arr ir.IRArray, at, op string) error {
	for i, elem := range arr {
		if !ir.IsScalar(elem) {
			return NewTypeMismatch(at, op, "%s[%d] must be a scalar, got %s", op, i, ir.TypeName(elem))
		}
	}
	return nil
}

// combine returns the single node, or the AND of several.
func combine(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return Logical{Op: LogicalAnd, Children: nodes}
}

// isOperatorKey reports whether key uses the operator prefix.
func isOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$")
}

// describe renders an operand for error messages.
func describe(v ir.IRValue) string {
	if s, err := ir.Text(v); err == nil {
		return fmt.Sprintf("%s %s", ir.TypeName(v), s)
	}
	return ir.TypeName(v)
}
