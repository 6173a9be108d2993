package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// FileStore keeps entries in a go-cache instance and mirrors every change to a JSON
// file so the entries survive a process restart. A store without a path only lives
// in memory.
type FileStore struct {
	mu        sync.Mutex
	cache     *gocache.Cache
	path      string
	discarded string
}

// OpenFileStore loads the store persisted at path, starting empty if the file does not exist.
// A file that cannot be parsed is renamed with a ".corrupt" suffix and the store starts
// empty; Discarded reports where it went.
func OpenFileStore(path string) (*FileStore, error) {
	items := map[string]gocache.Item{}
	discarded := ""

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &items); err != nil {
			items = map[string]gocache.Item{}
			discarded = path + ".corrupt"
			if err := os.Rename(path, discarded); err != nil {
				return nil, fmt.Errorf("failed to move corrupt cache file aside: %w", err)
			}
		}
	}

	// Expired entries loaded from disk are filtered on Get; no janitor needed
	return &FileStore{
		cache:     gocache.NewFrom(gocache.NoExpiration, 0, items),
		path:      path,
		discarded: discarded,
	}, nil
}

// NewMemoryStore returns a store that is never written to disk
func NewMemoryStore() *FileStore {
	return &FileStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

// Discarded returns the path an unparseable store file was moved to when it was opened
func (s *FileStore) Discarded() (string, bool) {
	return s.discarded, s.discarded != ""
}

// Get returns the unexpired value stored under key
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	value, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	str, ok := value.(string)
	if !ok {
		return "", false, fmt.Errorf("cache entry %q is %T, not a string", key, value)
	}
	return str, true, nil
}

// Put stores value under key and persists the store
func (s *FileStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.cache.Set(key, value, ttl)
	return s.persist()
}

// Delete removes key and persists the store
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(key)
	return s.persist()
}

// Close flushes the store to disk
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist writes the unexpired entries through a temp file so a crash never leaves a
// truncated store behind
func (s *FileStore) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.cache.Items())
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
