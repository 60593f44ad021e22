// Package kvstore provides the key-value stores that persist the plan flag
// and the template preference across sessions.
package kvstore

import (
	"context"

	"github.com/invoice-studio/pkg/config"
	ierr "github.com/invoice-studio/pkg/errors"
)

// Store is a string key-value store. Get returns an error marked with
// ierr.ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.FilePath)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.PostgresTable)
	default:
		return nil, ierr.NewErrorf("unsupported store type %q", cfg.Type).
			WithHint("store.type must be one of memory, file, redis, postgres").
			Mark(ierr.ErrValidation)
	}
}

func notFound(key string) error {
	return ierr.NewErrorf("key %q not set", key).Mark(ierr.ErrNotFound)
}
