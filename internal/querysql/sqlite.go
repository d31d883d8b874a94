package querysql

import (
	"strings"

	"github.com/roach88/filtersql/internal/ir"
)

// SQLite is the embedded dialect: a JSON text column queried with the
// scalar JSON functions and positional placeholders (?).
//
// Paths are JSON path strings:
//
//	json_extract("metadata", '$.profile.age')
//
// Element rows come from json_each(...) AS eN. Inside $elemMatch, paths are
// built from the element's absolute fullkey, so every extraction still runs
// against the document column:
//
//	json_extract("metadata", e0.fullkey || '.sku')
//
// $regex relies on a regexp() SQL function; the document store registers one.
type SQLite struct{}

// Name implements Dialect.
func (SQLite) Name() string { return "embedded" }

// Placeholder implements Dialect.
func (SQLite) Placeholder(int) string { return "?" }

// path is the JSON path expression for src.
func (SQLite) path(src Source) string {
	suffix := ""
	if !src.Path.IsRoot() {
		suffix = "." + strings.Join(src.Path, ".")
	}
	if src.Alias == "" {
		return "'$" + suffix + "'"
	}
	if suffix == "" {
		return src.Alias + ".fullkey"
	}
	return src.Alias + ".fullkey || '" + suffix + "'"
}

func (s SQLite) call(fn string, src Source) string {
	return fn + "(" + quoteIdent(src.Column) + ", " + s.path(src) + ")"
}

// JSONPath implements Dialect.
func (s SQLite) JSONPath(src Source, opts PathOptions) Fragment {
	switch {
	case opts.AsArrayCheck:
		return Raw(s.call("json_type", src) + " = 'array'")
	case opts.AsNumeric:
		return Raw("CASE WHEN " + s.call("json_type", src) + " IN ('integer', 'real') THEN " + s.call("json_extract", src) + " END")
	default:
		return Raw(s.call("json_extract", src))
	}
}

// Exists implements Dialect. json_type returns 'null' for an explicit null
// and SQL NULL for a missing key.
func (s SQLite) Exists(src Source) Fragment {
	return Raw(s.call("json_type", src) + " IS NOT NULL")
}

// ArrayLength implements Dialect. json_array_length returns 0 for non-arrays.
func (s SQLite) ArrayLength(src Source) Fragment {
	return Raw(s.call("json_array_length", src))
}

// Elements implements Dialect.
func (s SQLite) Elements(src Source, alias string) Fragment {
	return Raw(s.call("json_each", src) + " AS " + alias)
}

// Regex implements Dialect.
func (SQLite) Regex(text, pattern Fragment) Fragment {
	return frag(text, " REGEXP ", pattern)
}

// Like implements Dialect. SQLite LIKE is case-insensitive for ASCII.
func (SQLite) Like(text, pattern Fragment) Fragment {
	return frag(text, " LIKE ", pattern, ` ESCAPE '\'`)
}

// JSONEquals implements Dialect. json_extract returns arrays and objects as
// minified JSON text; the type check keeps a string holding the same text
// from matching.
func (s SQLite) JSONEquals(src Source, doc Param) Fragment {
	jt := s.call("json_type", src)
	return frag("(", jt, " IN ('array', 'object') AND ", s.call("json_extract", src), " = json(", doc, "))")
}

// Bool implements Dialect.
func (SQLite) Bool(v bool) Fragment {
	if v {
		return Raw("1 = 1")
	}
	return Raw("1 = 0")
}

// TextParam implements Dialect. json_extract returns typed SQL values, so
// operands keep their native type.
func (SQLite) TextParam(v ir.IRValue) (Param, error) {
	p, err := ir.ToParam(v)
	if err != nil {
		return Param{}, err
	}
	return Param{Value: p}, nil
}
