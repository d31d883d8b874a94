package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/filtersql/internal/ir"
)

// ErrEmptyID is returned by InsertWithID for an empty id.
var ErrEmptyID = errors.New("document id must not be empty")

// Insert stores meta under a new UUIDv7 id and returns the id.
func (s *Store) Insert(ctx context.Context, meta ir.IRObject) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("insert document: generate id: %w", err)
	}
	if err := s.InsertWithID(ctx, id.String(), meta); err != nil {
		return "", err
	}
	return id.String(), nil
}

// InsertWithID stores meta under id, replacing any existing document with
// that id.
func (s *Store) InsertWithID(ctx context.Context, id string, meta ir.IRObject) error {
	if id == "" {
		return fmt.Errorf("insert document: %w", ErrEmptyID)
	}
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, metadata)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET metadata = excluded.metadata
	`, id, metaJSON)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}
	return nil
}

// Delete removes the document with id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}
