// Package db defines the storage contract of kitfinder: hashes and counters
// in a Redis-compatible server plus a vector index over the item hashes.
// Consumers declare the narrow subset they need; Store is what main wires.
package db

import (
	"context"
	"time"
)

// Store is everything the Redis/Valkey driver offers.
//
//nolint:interfacebloat // facade; consumers declare narrow interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one hash written by HSetMulti.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore writes and removes item hashes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// DeletePrefix removes every key starting with prefix and reports how many went.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// KVStore holds the embedding cache and token counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// IndexManager manages FT index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, schema *Schema) error
	DropIndex(ctx context.Context, name string) error
	// IndexInfo returns ErrIndexNotFound when the index does not exist.
	IndexInfo(ctx context.Context, name string) (IndexInfo, error)
}

// IndexInfo is the subset of FT.INFO kitfinder reads.
type IndexInfo struct {
	Name    string
	NumDocs int
}

// Searcher runs vector similarity queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q KNNQuery) (KNNResult, error)
}
