package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage is a durable string key-value store kept in a single JSON file.
// Mutations are in memory until Save is called.
type LocalStorage struct {
	path    string
	mu      sync.Mutex
	Entries map[string]string `json:"entries"`
}

// NewLocalStorage returns an empty store bound to path. Call Load to read it.
func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{path: path, Entries: map[string]string{}}
}

// Load reads the file. A missing file yields an empty store.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.Entries = map[string]string{}
	f, err := os.Open(ls.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(ls); err != nil {
		return fmt.Errorf("decode %s: %w", ls.path, err)
	}
	if ls.Entries == nil {
		ls.Entries = map[string]string{}
	}
	return nil
}

// Save writes the store to a temp file next to path and renames it into place.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	dir := filepath.Dir(ls.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(ls); err != nil {
		tmp.Close()
		return fmt.Errorf("encode store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), ls.path)
}

// Get returns the value stored under key.
func (ls *LocalStorage) Get(key string) (string, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	v, ok := ls.Entries[key]
	return v, ok
}

// Set stores value under key.
func (ls *LocalStorage) Set(key, value string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.Entries == nil {
		ls.Entries = map[string]string{}
	}
	ls.Entries[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (ls *LocalStorage) Delete(key string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.Entries, key)
}
