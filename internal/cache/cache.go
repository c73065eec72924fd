// Package cache provides the namespaced key-value cache collaborator.
// The cache is an optimization, never a dependency: callers treat any
// Error as a miss or no-op and proceed without it.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Namespaces reserved by the application. Keys are stored prefixed as
// "<namespace>:<key>".
const (
	NamespaceDB      = "db"
	NamespaceNetwork = "network"
	NamespaceRisk    = "risk"
)

// Store is the cache contract consumed by the rest of the application.
// Get reports (value, found, error); a missing key is not an error.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Error marks a cache transport failure. The application-wide policy
// is to treat it as a miss on reads and a no-op on writes; it is
// logged but never surfaced to callers of the caching layer.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fullKey(namespace, key string) string {
	return namespace + ":" + key
}

// Noop is the disabled-cache store: every read misses and every write
// succeeds without storing anything.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
