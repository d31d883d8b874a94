package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
	"github.com/roach88/filtersql/internal/store"
)

// DefaultTable is the documents table name.
const DefaultTable = "documents"

// Document is one stored row.
type Document = store.Document

// Errors shared with the embedded store.
var (
	ErrNotFound = store.ErrNotFound
	ErrEmptyID  = store.ErrEmptyID
)

// Store is a JSON document store on PostgreSQL.
type Store struct {
	pool     *pgxpool.Pool
	table    string
	cache    *querysql.Cache
	maxDepth int
}

// Option configures a Store.
type Option func(*Store)

// WithTable sets the table name. It must be identifier-safe.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// WithCacheSize sets how many compiled filters are memoized.
func WithCacheSize(n int) Option {
	return func(s *Store) { s.cache = querysql.NewCache(n) }
}

// WithMaxDepth rejects filters nested deeper than n (0 = unlimited).
func WithMaxDepth(n int) Option {
	return func(s *Store) { s.maxDepth = n }
}

// Open connects to dsn and creates the documents table if needed.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{table: DefaultTable, cache: querysql.NewCache(store.DefaultCacheSize)}
	for _, opt := range opts {
		opt(s)
	}
	if !queryir.IsIdentifier(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.MaxConns = 5
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s.pool = pool

	if _, err := pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (id text PRIMARY KEY, metadata jsonb NOT NULL)`, s.table,
	)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Pool returns the underlying pool for direct queries.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Drop removes the table. Used by tests that create throwaway tables.
func (s *Store) Drop(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, s.table)); err != nil {
		return fmt.Errorf("drop table %s: %w", s.table, err)
	}
	return nil
}

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

// InsertWithID stores meta under id, replacing any existing document.
func (s *Store) InsertWithID(ctx context.Context, id string, meta ir.IRObject) error {
	if id == "" {
		return fmt.Errorf("insert document: %w", ErrEmptyID)
	}
	if meta == nil {
		meta = ir.IRObject{}
	}
	doc, err := ir.MarshalCanonical(meta)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %q (id, metadata) VALUES ($1, CAST($2 AS jsonb))
		ON CONFLICT (id) DO UPDATE SET metadata = excluded.metadata
	`, s.table), id, string(doc))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}
	return nil
}

// Delete removes the document with id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %q WHERE id = $1`, s.table), id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Find returns every document matching node, ordered by id. A nil node
// matches all documents.
func (s *Store) Find(ctx context.Context, node queryir.Node) ([]Document, error) {
	where, err := s.compile(node)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, metadata::text FROM %q`, s.table)+where.Where()+` ORDER BY id COLLATE "C" ASC`,
		where.Values...,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	if docs == nil {
		docs = []Document{}
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
	var n int64
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, s.table)+where.Where(), where.Values...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int(n), nil
}

// Get returns the document with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, metadata::text FROM %q WHERE id = $1`, s.table), id)
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	doc, err := pgx.CollectExactlyOneRow(rows, scanDocument)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("get document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *Store) compile(node queryir.Node) (querysql.Result, error) {
	r, err := s.cache.Compile(node, querysql.Postgres{}, querysql.WithMaxDepth(s.maxDepth))
	if err != nil {
		return querysql.Result{}, err
	}
	slog.Debug("filter compiled",
		"dialect", "full",
		"shape", r.Shape(),
		"sql", r.SQL,
		"values", len(r.Values),
	)
	return r, nil
}

func scanDocument(row pgx.CollectableRow) (Document, error) {
	var (
		doc      Document
		metaJSON string
	)
	if err := row.Scan(&doc.ID, &metaJSON); err != nil {
		return Document{}, err
	}
	v, err := ir.UnmarshalIRValue([]byte(metaJSON))
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return Document{}, fmt.Errorf("document %s: metadata is %s, not an object", doc.ID, ir.TypeName(v))
	}
	doc.Metadata = obj
	return doc, nil
}
