package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the price cache in a JSON file. Expired entries are
// purged when the file loads and rejected on read in between.
type FileStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, now: time.Now, entries: map[string]*Entry{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	var entries map[string]*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt cache is cheap to rebuild; start empty.
		return s, nil
	}
	cutoff := s.now().Add(-CacheTTL)
	for key, e := range entries {
		if e.Timestamp.After(cutoff) {
			s.entries[key] = e
		}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.Timestamp) >= CacheTTL {
		return nil, ErrCacheMiss
	}
	c := *e
	return &c, nil
}

func (s *FileStore) Put(ctx context.Context, key string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.entries[key] = &c
	return s.saveLocked()
}

func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".price-cache-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
