package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// ErrKeyNotFound is returned by Storage.Get when no value is stored for a key
var ErrKeyNotFound = goerr.New("key not found")

// Storage is a local key-value persistence capability
type Storage interface {
	// Get returns the value stored for key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources
	Close() error
}
