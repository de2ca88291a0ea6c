package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore persists snapshots as JSON files under a data directory. It is
// the default backend, the closest server-side analogue to the browser's
// local storage.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

type fileEnvelope struct {
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Data      json.RawMessage `json:"data"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	// Keys contain cart ids; keep the file name flat and predictable.
	safe := strings.NewReplacer("/", "_", ":", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(key)
}

func (s *FileStore) readLocked(key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", key, err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", key, err)
	}
	if env.ExpiresAt != nil && time.Now().After(*env.ExpiresAt) {
		_ = os.Remove(s.path(key))
		return nil, ErrNotFound
	}
	return env.Data, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(key, value, ttl)
}

func (s *FileStore) writeLocked(key string, value []byte, ttl time.Duration) error {
	env := fileEnvelope{Data: value}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		env.ExpiresAt = &exp
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("committing snapshot %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readLocked(key); err == nil {
		return false, nil
	} else if err != ErrNotFound {
		return false, err
	}
	if err := s.writeLocked(key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting snapshot %q: %w", key, err)
	}
	return nil
}
