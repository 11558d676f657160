package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

type fileStore struct {
	path   string
	mu     sync.Mutex
	data   map[string]any
	loaded bool
}

var _ Store = (*fileStore)(nil)

// NewFile returns a Store persisted as a JSON object in the file at path.
// The file is read lazily on first access and rewritten on every Set.
// A missing file is treated as an empty store.
func NewFile(path string) Store {
	return &fileStore{path: path}
}

func (s *fileStore) load() error {
	if s.loaded {
		return nil
	}
	data := make(map[string]any)
	buf, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return errors.Wrapf(err, "store: reading %s", s.path)
	case len(buf) > 0:
		if err := json.Unmarshal(buf, &data); err != nil {
			return errors.Wrapf(err, "store: parsing %s", s.path)
		}
	}
	s.data = data
	s.loaded = true
	return nil
}

func (s *fileStore) Get(_ context.Context, key string) (bool, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, nil, err
	}
	val, ok := s.data[key]
	return ok, val, nil
}

func (s *fileStore) Set(_ context.Context, key string, val any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.data[key] = val
	buf, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "store: encoding %q", key)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "store: creating %s", dir)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return errors.Wrapf(err, "store: writing %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "store: replacing %s", s.path)
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}
