package kvstore

import (
	"context"

	goCache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps values for the life of the process only.
type MemoryStore struct {
	cache *goCache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: goCache.New(goCache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", notFound(key)
	}
	return v.(string), nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, goCache.NoExpiration)
	return nil
}

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	_, ok := s.cache.Get(key)
	return ok, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
