package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
)

// Source names the JSON value a condition applies to.
//
// At the top level a Source is a path inside the document column. Inside
// $elemMatch it is a path inside one array element, where Alias names the
// row produced by the dialect's element iterator and an empty Path is the
// element itself.
type Source struct {
	// Column is the sanitized name of the JSON column.
	Column string

	// Alias is the element iterator alias (e0, e1, ...), or "" for the document.
	Alias string

	// Path is relative to the document or to the element.
	Path queryir.SafePath
}

// Sub returns the source at path below s.
func (s Source) Sub(path queryir.SafePath) Source {
	p := make(queryir.SafePath, 0, len(s.Path)+len(path))
	p = append(p, s.Path...)
	p = append(p, path...)
	return Source{Column: s.Column, Alias: s.Alias, Path: p}
}

// Element returns the source for the element row named alias.
func (s Source) Element(alias string) Source {
	return Source{Column: s.Column, Alias: alias}
}

// PathOptions selects the form of a JSON extraction. The zero value extracts
// the value as text (strings unquoted).
type PathOptions struct {
	// AsNumeric extracts a number, or NULL when the value is not a JSON number.
	AsNumeric bool

	// AsArrayCheck tests whether the value is a JSON array.
	AsArrayCheck bool
}

// Dialect supplies the syntax that varies per backend.
//
// Operator builders are written once against this interface. Adding a
// backend means implementing Dialect; nothing else changes. All methods
// must be pure and must only place sanitized identifiers into Raw text.
type Dialect interface {
	// Name returns the dialect selector ("full" or "embedded" for the built-ins).
	Name() string

	// Placeholder returns the placeholder for the 1-based parameter index.
	Placeholder(index int) string

	// JSONPath extracts the value at src.
	JSONPath(src Source, opts PathOptions) Fragment

	// Exists is true when the key at src is present, including explicit null.
	Exists(src Source) Fragment

	// ArrayLength is the length of the array at src. Non-arrays yield NULL or 0,
	// never an execution error.
	ArrayLength(src Source) Fragment

	// Elements is a FROM item producing one row per element of the array at
	// src, aliased as alias. Non-arrays produce no rows.
	Elements(src Source, alias string) Fragment

	// Regex matches text against a dialect-native pattern.
	Regex(text, pattern Fragment) Fragment

	// Like is a case-insensitive LIKE with backslash as the escape character.
	Like(text, pattern Fragment) Fragment

	// JSONEquals compares the JSON value at src with a canonical JSON document.
	JSONEquals(src Source, doc Param) Fragment

	// Bool is a constant predicate.
	Bool(v bool) Fragment

	// TextParam returns the parameter compared against a text extraction.
	TextParam(v ir.IRValue) (Param, error)
}

// DialectFor returns the built-in dialect for a selector.
//
// "full" and "postgres" select PostgreSQL; "embedded" and "sqlite" select SQLite.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "full", "postgres", "postgresql", "pg":
		return Postgres{}, nil
	case "embedded", "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q (want full or embedded)", name)
	}
}

// MustDialect is like DialectFor but panics on error.
func MustDialect(name string) Dialect {
	d, err := DialectFor(name)
	if err != nil {
		panic(err)
	}
	return d
}
