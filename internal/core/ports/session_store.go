package ports

import "context"

// SessionStore is durable key/value storage for the persisted session record.
// Get returns nil, nil when the key is absent.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
