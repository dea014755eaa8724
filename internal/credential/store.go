// Package credential provides the key-value storage capability the session
// token is persisted through.
package credential

import "errors"

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("credential not found")

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Remove(key string) error
}
