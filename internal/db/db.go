package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	KVStore
	SortedSetStore
	UniqueInserter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// SortedSetStore keeps lexicographically ordered member indexes (all scores are 0).
type SortedSetStore interface {
	// ZRangeAfter returns up to count members strictly greater than after ("" = from the start).
	ZRangeAfter(ctx context.Context, key, after string, count int) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// UniqueInserter atomically stores a value only if the key is absent and, in the same
// step, adds member to the index sorted set. Returns false if the key already existed.
type UniqueInserter interface {
	InsertUnique(ctx context.Context, key string, value []byte, indexKey, member string) (bool, error)
}
