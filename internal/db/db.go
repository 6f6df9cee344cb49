// Package db describes the key-value and vector search operations quizgen needs
// from Redis: document hashes, the embedding cache and KNN over the document index.
package db

import (
	"context"
	"time"
)

// Store is everything the Redis driver provides. The document repository and the
// embedding cache each depend on a narrower subset.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger backs the vector_index health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore holds one hash per indexed document (owner, content, vector blob).
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore holds cached embeddings. A zero TTL stores without expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates the document index on startup.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs owner-filtered KNN queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
