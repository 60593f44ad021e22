package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	ierr "github.com/invoice-studio/pkg/errors"
	"sigs.k8s.io/yaml"
)

// FileStore keeps all keys in a single YAML document on disk. Every Set
// rewrites the file through a temp file and rename.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, ierr.WithError(err).
			WithHintf("could not read store file %s", path).
			Mark(ierr.ErrSystem)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("store file %s is not valid YAML", path).
			Mark(ierr.ErrValidation)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", notFound(key)
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.values[key]
	return ok, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flush() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".kvstore-*")
	if err != nil {
		return ierr.WithError(err).WithHintf("could not write store file in %s", dir).Mark(ierr.ErrSystem)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if err := tmp.Close(); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	return nil
}
