// Package storage provides the durable key-value store behind the
// OAuth credential and PKCE transaction state. The interface mirrors
// the browser localStorage the flows were designed around: string
// keys, string values, absent keys read as empty.
package storage

import "context"

type Store interface {
	// Get returns the stored value, or the empty string when the key
	// is absent. The empty string is never a stored value.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
