// Package storage persists whole JSON documents under string keys.
//
// The sync engine keeps three documents: the request status cache, the
// offline notification queue and the user's notification preferences. Each
// is always read and written as a unit.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// DocumentStore defines raw document access. Implementations must be safe
// for concurrent use.
type DocumentStore interface {
	// Get returns the stored bytes for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
