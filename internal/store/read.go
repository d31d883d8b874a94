package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
)

// ErrNotFound is returned by Get for a missing id.
var ErrNotFound = errors.New("document not found")

// Find returns every document matching node, ordered by id COLLATE BINARY ASC.
// A nil node matches all documents. Returns an empty slice (not nil) when
// nothing matches.
func (s *Store) Find(ctx context.Context, node queryir.Node) ([]Document, error) {
	where, err := s.compile(node)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, metadata FROM documents"+where.Where()+" ORDER BY id COLLATE BINARY ASC",
		where.Values...,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// FindIDs is Find returning only ids.
func (s *Store) FindIDs(ctx context.Context, node queryir.Node) ([]string, error) {
	docs, err := s.Find(ctx, node)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Count returns how many documents match node.
func (s *Store) Count(ctx context.Context, node queryir.Node) (int, error) {
	where, err := s.compile(node)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}

	var n int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where.Where(), where.Values...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Get returns the document with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, metadata FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("get document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// compile turns node into a WHERE body for the embedded dialect.
func (s *Store) compile(node queryir.Node) (querysql.Result, error) {
	opts := []querysql.Option{querysql.WithMaxDepth(s.maxDepth)}
	r, err := s.cache.Compile(node, querysql.SQLite{}, opts...)
	if err != nil {
		return querysql.Result{}, err
	}
	slog.Debug("filter compiled",
		"dialect", "embedded",
		"shape", r.Shape(),
		"sql", r.SQL,
		"values", len(r.Values),
	)
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc      Document
		metaJSON string
	)
	if err := row.Scan(&doc.ID, &metaJSON); err != nil {
		return Document{}, err
	}
	meta, err := unmarshalMetadata(metaJSON)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	doc.Metadata = meta
	return doc, nil
}
