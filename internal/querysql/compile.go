package querysql

import (
	"fmt"
	"strconv"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
)

// DefaultColumn is the JSON column filters apply to unless WithColumn is given.
const DefaultColumn = "metadata"

// Result is a compiled WHERE clause body and its parameters.
//
// SQL is meant to follow a WHERE keyword verbatim; it is empty when there is
// no filter, and the caller then omits WHERE entirely. Values are passed to
// the driver as-is, in order. The number of placeholders in SQL always
// equals len(Values).
type Result struct {
	SQL    string
	Values []any
}

// Empty reports whether there is no filter to apply.
func (r Result) Empty() bool {
	return r.SQL == ""
}

// Where returns " WHERE <sql>" or "" for an empty result.
func (r Result) Where() string {
	if r.Empty() {
		return ""
	}
	return " WHERE " + r.SQL
}

// Shape hashes the SQL text alone. Filters that differ only in operand
// values share a shape, which makes it a stable key for logs and statement
// caches.
func (r Result) Shape() string {
	if r.Empty() {
		return ""
	}
	return ir.HashBytes(ir.DomainQuery, []byte(r.SQL))
}

// Option configures a compilation.
type Option func(*options)

type options struct {
	column   string
	maxDepth int
}

func (o options) key() string {
	return o.column + "|" + strconv.Itoa(o.maxDepth)
}

// WithColumn sets the JSON column name. It must be identifier-safe.
func WithColumn(name string) Option {
	return func(o *options) { o.column = name }
}

// WithMaxDepth bounds filter nesting (see queryir.Depth). Zero means no limit.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func buildOptions(opts []Option) options {
	o := options{column: DefaultColumn}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Compile converts a filter tree into a parameterized WHERE clause body.
//
// Compile is a pure function of its inputs: it performs no I/O, keeps all
// state in a per-call builder, and may be called concurrently. A nil node
// compiles to an empty Result.
//
// Failure modes (all *queryir.FilterError): INVALID_FIELD_PATH,
// UNSUPPORTED_OPERATOR, EMPTY_NEGATION, TYPE_MISMATCH, and DEPTH_EXCEEDED
// when WithMaxDepth is set.
func Compile(node queryir.Node, d Dialect, opts ...Option) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("compile filter: nil dialect")
	}
	o := buildOptions(opts)
	if !queryir.IsIdentifier(o.column) {
		return Result{}, queryir.NewInvalidFieldPath(o.column, "column name is not identifier-safe")
	}
	if isNil(node) {
		return Result{}, nil
	}

	b := &builder{d: d, maxDepth: o.maxDepth}
	f, err := b.node(node, Source{Column: o.column})
	if err != nil {
		return Result{}, err
	}

	sql, values := render(f, d)
	return Result{SQL: sql, Values: values}, nil
}

// CompileJSON parses a JSON filter object and compiles it.
func CompileJSON(data []byte, d Dialect, opts ...Option) (Result, error) {
	node, err := queryir.ParseJSON(data)
	if err != nil {
		return Result{}, err
	}
	return Compile(node, d, opts...)
}

// isNil reports a nil interface or a typed nil pointer.
func isNil(n queryir.Node) bool {
	switch node := n.(type) {
	case nil:
		return true
	case *queryir.Condition:
		return node == nil
	case *queryir.Logical:
		return node == nil
	}
	return false
}

// builder is the per-call compilation state.
type builder struct {
	d        Dialect
	maxDepth int
	depth    int
	aliases  int
}

// nextAlias returns e0, e1, ... in traversal order.
func (b *builder) nextAlias() string {
	alias := "e" + strconv.Itoa(b.aliases)
	b.aliases++
	return alias
}

// node compiles n against src, depth-first and left to right.
func (b *builder) node(n queryir.Node, src Source) (Fragment, error) {
	b.depth++
	defer func() { b.depth-- }()
	if b.maxDepth > 0 && b.depth > b.maxDepth {
		return nil, queryir.NewDepthExceeded(src.Path.String(), b.maxDepth)
	}

	switch node := n.(type) {
	case queryir.Condition:
		return b.condition(node, src)
	case *queryir.Condition:
		return b.condition(*node, src)
	case queryir.Logical:
		return b.logical(node, src)
	case *queryir.Logical:
		return b.logical(*node, src)
	default:
		return nil, queryir.NewTypeMismatch(src.Path.String(), "", "unsupported filter node type: %T", n)
	}
}

// condition sanitizes and normalizes c, then applies its operator builder.
func (b *builder) condition(c queryir.Condition, src Source) (Fragment, error) {
	if c.Field.IsRoot() && src.Alias == "" {
		return nil, queryir.NewInvalidFieldPath("", "field path is empty outside $elemMatch")
	}

	c, err := queryir.Normalize(c)
	if err != nil {
		return nil, err
	}

	build, err := Lookup(c.Op)
	if err != nil {
		return nil, err
	}
	return build(b, src.Sub(c.Field), c)
}

// logical applies the combinator rules:
//
//	AND: ((c1) AND (c2) ...)   empty: true
//	OR:  ((c1) OR (c2) ...)    empty: false
//	NOT: NOT (c1 AND c2 ...)   empty: EMPTY_NEGATION
//	NOR: NOT ((c1) OR (c2) ...) empty: true
func (b *builder) logical(l queryir.Logical, src Source) (Fragment, error) {
	if !l.Op.IsValid() {
		return nil, queryir.NewUnsupportedOperator(src.Path.String(), string(l.Op), "unknown logical operator")
	}
	if l.Op == queryir.LogicalNot && len(l.Children) == 0 {
		return nil, queryir.NewEmptyNegation(src.Path.String())
	}

	children := make([]Fragment, 0, len(l.Children))
	for _, child := range l.Children {
		f, err := b.node(child, src)
		if err != nil {
			return nil, err
		}
		children = append(children, paren(f))
	}

	switch l.Op {
	case queryir.LogicalAnd:
		if len(children) == 0 {
			return b.d.Bool(true), nil
		}
		return Group{Inner: join(" AND ", children)}, nil
	case queryir.LogicalOr:
		if len(children) == 0 {
			return b.d.Bool(false), nil
		}
		return Group{Inner: join(" OR ", children)}, nil
	case queryir.LogicalNot:
		if len(children) == 1 {
			return frag("NOT ", children[0]), nil
		}
		return frag("NOT ", Group{Inner: join(" AND ", children)}), nil
	default: // NOR
		if len(children) == 0 {
			return b.d.Bool(true), nil
		}
		return frag("NOT ", Group{Inner: join(" OR ", children)}), nil
	}
}
