package querysql

import (
	"strings"

	"github.com/roach88/filtersql/internal/ir"
)

// Postgres is the full dialect: a JSONB column queried with native JSONB
// operators and numbered placeholders ($1, $2, ...).
//
// Paths use the #> / #>> operators with a text-array literal:
//
//	"metadata" #> '{"profile","age"}'     jsonb
//	"metadata" #>> '{"profile","age"}'    text
//
// Element rows come from jsonb_array_elements(...) AS eN(value). Every
// array-only function is fed through a CASE guard so that non-array values
// produce NULL instead of an execution error.
type Postgres struct{}

// Name implements Dialect.
func (Postgres) Name() string { return "full" }

// Placeholder implements Dialect.
func (Postgres) Placeholder(index int) string { return numbered(index) }

// base is the jsonb expression a source's path is applied to.
func (Postgres) base(src Source) string {
	if src.Alias != "" {
		return src.Alias + ".value"
	}
	return quoteIdent(src.Column)
}

// pathLiteral renders segments as a text-array literal: '{"a","b"}'.
// Elements are quoted so that a key such as null is not read as SQL NULL.
func (Postgres) pathLiteral(src Source) string {
	quoted := make([]string, len(src.Path))
	for i, seg := range src.Path {
		quoted[i] = `"` + seg + `"`
	}
	return "'{" + strings.Join(quoted, ",") + "}'"
}

// jsonb is the jsonb value at src.
func (p Postgres) jsonb(src Source) string {
	if src.Path.IsRoot() {
		return p.base(src)
	}
	return p.base(src) + " #> " + p.pathLiteral(src)
}

// text is the text value at src (strings unquoted, JSON null as NULL).
func (p Postgres) text(src Source) string {
	return p.base(src) + " #>> " + p.pathLiteral(src)
}

// guarded passes the jsonb at src through only when it is an array.
func (p Postgres) guarded(src Source) string {
	j := p.jsonb(src)
	return "CASE WHEN jsonb_typeof(" + j + ") = 'array' THEN " + j + " END"
}

// JSONPath implements Dialect.
func (p Postgres) JSONPath(src Source, opts PathOptions) Fragment {
	switch {
	case opts.AsArrayCheck:
		return Raw("jsonb_typeof(" + p.jsonb(src) + ") = 'array'")
	case opts.AsNumeric:
		return Raw("CASE WHEN jsonb_typeof(" + p.jsonb(src) + ") = 'number' THEN CAST(" + p.text(src) + " AS numeric) END")
	default:
		return Raw(p.text(src))
	}
}

// Exists implements Dialect. #> yields SQL NULL only for a missing key.
func (p Postgres) Exists(src Source) Fragment {
	return Raw(p.jsonb(src) + " IS NOT NULL")
}

// ArrayLength implements Dialect.
func (p Postgres) ArrayLength(src Source) Fragment {
	return Raw("jsonb_array_length(" + p.guarded(src) + ")")
}

// Elements implements Dialect.
func (p Postgres) Elements(src Source, alias string) Fragment {
	return Raw("jsonb_array_elements(" + p.guarded(src) + ") AS " + alias + "(value)")
}

// Regex implements Dialect with the POSIX match operator.
func (Postgres) Regex(text, pattern Fragment) Fragment {
	return frag(text, " ~ ", pattern)
}

// Like implements Dialect.
func (Postgres) Like(text, pattern Fragment) Fragment {
	return frag(text, " ILIKE ", pattern, ` ESCAPE '\'`)
}

// JSONEquals implements Dialect. jsonb equality ignores formatting and key order.
func (p Postgres) JSONEquals(src Source, doc Param) Fragment {
	return frag(p.jsonb(src)+" = CAST(", doc, " AS jsonb)")
}

// Bool implements Dialect.
func (Postgres) Bool(v bool) Fragment {
	if v {
		return Raw("TRUE")
	}
	return Raw("FALSE")
}

// TextParam implements Dialect. #>> yields text, so operands are sent as the
// text JSONB would print for them.
func (Postgres) TextParam(v ir.IRValue) (Param, error) {
	s, err := ir.Text(v)
	if err != nil {
		return Param{}, err
	}
	return Param{Value: s}, nil
}
