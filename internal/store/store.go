package store

import "context"

// Store defines the local key-value persistence the client relies on.
// Values are opaque strings such as the last signed-in email.
type Store interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}
