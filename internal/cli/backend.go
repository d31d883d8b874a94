package cli

import (
	"context"
	"fmt"

	"github.com/roach88/filtersql/internal/config"
	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/pgstore"
	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
	"github.com/roach88/filtersql/internal/store"
)

// documentStore is what load and query need from a backend.
type documentStore interface {
	Insert(ctx context.Context, meta ir.IRObject) (string, error)
	InsertWithID(ctx context.Context, id string, meta ir.IRObject) error
	Find(ctx context.Context, node queryir.Node) ([]store.Document, error)
	Count(ctx context.Context, node queryir.Node) (int, error)
	Close() error
}

// pgBackend adapts pgstore.Store, whose Close cannot fail.
type pgBackend struct {
	*pgstore.Store
}

func (b pgBackend) Close() error {
	b.Store.Close()
	return nil
}

// openBackend opens the store selected by cfg.Dialect.
func openBackend(ctx context.Context, cfg *config.Config) (documentStore, error) {
	d, err := querysql.DialectFor(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	switch d.Name() {
	case "full":
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("dialect full needs a PostgreSQL DSN (--dsn or postgres.dsn)")
		}
		st, err := pgstore.Open(ctx, cfg.Postgres.DSN,
			pgstore.WithTable(cfg.Postgres.Table),
			pgstore.WithCacheSize(cfg.CacheSize),
			pgstore.WithMaxDepth(cfg.MaxDepth),
		)
		if err != nil {
			return nil, err
		}
		return pgBackend{st}, nil
	default:
		st, err := store.Open(cfg.SQLite.Path,
			store.WithCacheSize(cfg.CacheSize),
			store.WithMaxDepth(cfg.MaxDepth),
		)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}
