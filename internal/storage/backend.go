package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a small key-value store for per-session state.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Purger is implemented by backends that do not expire entries on their own.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionPrefix is the key prefix for everything owned by one browser session.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

type namespaced struct {
	backend Backend
	prefix  string
}

// Namespace scopes every key to prefix.
func Namespace(backend Backend, prefix string) Backend {
	return &namespaced{backend: backend, prefix: prefix}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.backend.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.backend.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.backend.Remove(ctx, n.prefix+key)
}
