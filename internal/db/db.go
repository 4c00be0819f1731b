// Package db defines the storage contracts of the tender index: JSON documents,
// the embedding cache's key-value entries, and the FT index with its queries.
// internal/db/redis implements them over a Redis Stack or Valkey server.
package db

import (
	"context"
	"time"
)

// Store is everything one server connection offers. Consumers depend on the
// narrow interface they use, never on Store itself.
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexManager
	Searcher

	// WaitForReady blocks until the server answers and supports FT commands,
	// or the timeout elapses.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Pinger reports whether the server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore writes JSON documents. Documents are only read back through search.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
}

// KVStore is plain GET/SET storage. Get returns ErrKeyNotFound for absent keys.
// A zero ttl in SetWithTTL means no expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates and drops FT indexes. CreateIndex returns ErrIndexExists
// and DropIndex returns ErrIndexNotFound so callers can treat both as success.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs queries against an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchBM25(ctx context.Context, q *TextQuery) (*SearchResult, error)
	// SearchCount returns the number of documents matching a raw query, "*" for all.
	SearchCount(ctx context.Context, index, query string) (int, error)
}
