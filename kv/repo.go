// Package kv defines the persistent key-value capability used for the local
// session snapshot and the best-effort entitlement markers.
package kv

import "errors"

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Repo is a flat string-to-string store. Values are raw JSON text; encoding
// and decoding are the caller's responsibility.
type Repo interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
