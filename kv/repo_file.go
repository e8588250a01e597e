package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileRepo persists keys as a single JSON object on disk. Every write
// rewrites the file, which keeps the store crash-consistent at the
// granularity of one key.
type FileRepo struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFileRepo creates the data directory if needed and loads any existing
// store file.
func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileRepo] MkdirAll")
	}
	r := &FileRepo{
		path:   filepath.Join(dataDir, "store.json"),
		values: map[string]string{},
	}
	if err := r.load(); err != nil {
		return nil, errors.Wrap(err, "[NewFileRepo] load")
	}
	return r, nil
}

func (r *FileRepo) load() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	loaded := map[string]string{}
	if err := json.Unmarshal(b, &loaded); err != nil {
		// A corrupted store file is treated as empty rather than fatal.
		return nil
	}
	r.values = loaded
	return nil
}

func (r *FileRepo) save() error {
	b, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Get returns the stored value for key.
func (r *FileRepo) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key and flushes the file.
func (r *FileRepo) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	if err := r.save(); err != nil {
		return errors.Wrap(err, "[FileRepo.Set] save")
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *FileRepo) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.values[key]; !ok {
		return nil
	}
	delete(r.values, key)
	if err := r.save(); err != nil {
		return errors.Wrap(err, "[FileRepo.Delete] save")
	}
	return nil
}
