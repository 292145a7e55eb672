// Package metadata stores small client-side key/value records in the local
// SQLite database. The CLI keeps its session cookie here so a restart does
// not require logging in again.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store.
// Get returns (nil, nil) when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
