package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/lib/pq"
)

// PostgresStore keeps values in a two-column table created on first use.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error connecting to the database").
			Mark(ierr.ErrDatabase)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ierr.WithError(err).
			WithHint("Error connecting to the database").
			Mark(ierr.ErrDatabase)
	}

	s := NewPostgresStoreFromDB(db, table)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an open handle without touching the schema.
func NewPostgresStoreFromDB(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "entitlement_kv"
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return ierr.WithError(err).WithMessage("creating entitlement table").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.table)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound(key)
	} else if err != nil {
		return "", ierr.WithError(err).WithMessagef("select %s", key).Mark(ierr.ErrDatabase)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return ierr.WithError(err).WithMessagef("upsert %s", key).Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE key = $1)", s.table)
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, ierr.WithError(err).WithMessagef("exists %s", key).Mark(ierr.ErrDatabase)
	}
	return exists, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
