package querysql

import (
	"strconv"
	"strings"
)

// Fragment is a piece of SQL under construction.
//
// Fragments are plain text, parameter slots, and sequences of both. They are
// rendered to text exactly once, at the end of compilation, which is where
// placeholders get their numbers. A placeholder therefore cannot be emitted
// without its value, and values come out in the same left-to-right order as
// the placeholders in the text.
//
// This is a sealed interface - only types in this package implement it.
type Fragment interface {
	fragment() // Marker method - seals interface to this package
}

// Raw is literal SQL text. It must never contain caller-supplied values;
// identifiers in it come from sanitized paths only.
type Raw string

func (Raw) fragment() {}

// Param is a parameter slot holding a driver-ready value.
type Param struct {
	Value any
}

func (Param) fragment() {}

// Seq is a concatenation of fragments.
type Seq []Fragment

func (Seq) fragment() {}

// Group is a parenthesised fragment. Combinators use it to avoid wrapping a
// group in a second pair of parentheses.
type Group struct {
	Inner Fragment
}

func (Group) fragment() {}

// frag builds a Seq from strings (as Raw) and fragments.
func frag(parts ...any) Seq {
	seq := make(Seq, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			seq = append(seq, Raw(v))
		case Fragment:
			seq = append(seq, v)
		default:
			panic("querysql: frag part must be string or Fragment")
		}
	}
	return seq
}

// paren wraps f in parentheses unless it already is a Group.
func paren(f Fragment) Group {
	if g, ok := f.(Group); ok {
		return g
	}
	return Group{Inner: f}
}

// join concatenates fragments with sep between them.
func join(sep string, parts []Fragment) Seq {
	seq := make(Seq, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			seq = append(seq, Raw(sep))
		}
		seq = append(seq, p)
	}
	return seq
}

// quoteIdent double-quotes a sanitized identifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// render turns a fragment into SQL text and its ordered parameter values.
func render(f Fragment, d Dialect) (string, []any) {
	r := &renderer{d: d}
	r.write(f)
	return r.sb.String(), r.values
}

type renderer struct {
	d      Dialect
	sb     strings.Builder
	values []any
}

func (r *renderer) write(f Fragment) {
	switch v := f.(type) {
	case nil:
	case Raw:
		r.sb.WriteString(string(v))
	case Param:
		r.values = append(r.values, v.Value)
		r.sb.WriteString(r.d.Placeholder(len(r.values)))
	case Seq:
		for _, part := range v {
			r.write(part)
		}
	case Group:
		r.sb.WriteByte('(')
		r.write(v.Inner)
		r.sb.WriteByte(')')
	default:
		panic("querysql: unknown fragment type")
	}
}

// numbered returns "$n", the numbered placeholder style.
func numbered(index int) string {
	return "$" + strconv.Itoa(index)
}
