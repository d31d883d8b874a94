// Package pgstore is the PostgreSQL counterpart of package store: the same
// document operations against a JSONB column, with filters compiled in the
// full dialect.
//
//	documents(id text PRIMARY KEY, metadata jsonb NOT NULL)
//
// Reads order by id COLLATE "C" ASC, the byte-order collation that matches
// the embedded store's COLLATE BINARY.
package pgstore
