// Package repofakes provides an in-memory kv.Repo for tests.
package repofakes

import (
	"errors"
	"sync"

	"github.com/mathcodehq/mathcode-client/kv"
)

// FakeRepo is a thread-safe in-memory implementation of kv.Repo. Setting
// FailWrites simulates unavailable storage (quota, privacy mode); FailKey
// fails writes to a single key, for partial-write scenarios.
type FakeRepo struct {
	mu         sync.RWMutex
	values     map[string]string
	FailWrites bool
	FailKey    string
}

// NewFakeRepo creates an empty fake store.
func NewFakeRepo() *FakeRepo {
	return &FakeRepo{values: map[string]string{}}
}

// Get returns the stored value for key.
func (r *FakeRepo) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (r *FakeRepo) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites || (r.FailKey != "" && key == r.FailKey) {
		return errors.New("storage unavailable")
	}
	r.values[key] = value
	return nil
}

// Delete removes key.
func (r *FakeRepo) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites {
		return errors.New("storage unavailable")
	}
	delete(r.values, key)
	return nil
}

// Len reports how many keys are stored.
func (r *FakeRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
