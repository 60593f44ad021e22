package kvstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	ierr "github.com/invoice-studio/pkg/errors"
)

// RedisStore keeps values under prefix+key with no expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("invalid redis URL").
			Mark(ierr.ErrValidation)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, ierr.WithError(err).
			WithHint("failed to connect to redis").
			Mark(ierr.ErrDatabase)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", notFound(key)
	} else if err != nil {
		return "", ierr.WithError(err).WithMessagef("redis get %s", key).Mark(ierr.ErrDatabase)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return ierr.WithError(err).WithMessagef("redis set %s", key).Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, ierr.WithError(err).WithMessagef("redis exists %s", key).Mark(ierr.ErrDatabase)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
