// Package slot provides durable key-value slots. A slot holds one opaque
// document per key and survives process restarts (except the memory backend).
package slot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("slot: key not found")

// Slot is a durable key-value location. Implementations are safe for
// concurrent use.
type Slot interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
