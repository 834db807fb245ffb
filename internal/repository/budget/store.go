package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/patentdex/internal/db"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps token counters in a KV store (INCRBY + GET with TTL).
type Store struct {
	store    store
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// IncrBy atomically increments the key value and sets TTL.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}

	// TTL only if the key has no expiry yet, so repeats don't extend the window.
	if err := s.store.Expire(ctx, key, ttlForKey(key, s.dailyTTL, s.monthTTL), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the current budget value. Returns 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// ttlForKey picks the TTL from the key period (…:daily:… or …:monthly:…).
func ttlForKey(key string, daily, monthly time.Duration) time.Duration {
	if strings.Contains(key, ":daily:") {
		return daily
	}
	return monthly
}

// Memory is a process-local counter store for drivers without a KV backend.
// Counters reset when the process restarts.
type Memory struct {
	mu       sync.Mutex
	counters map[string]counter
	dailyTTL time.Duration
	monthTTL time.Duration
	now      func() time.Time
}

type counter struct {
	value   int64
	expires time.Time
}

// NewMemory creates a process-local budget store.
func NewMemory(dailyTTL, monthTTL time.Duration) *Memory {
	return &Memory{
		counters: make(map[string]counter),
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
		now:      time.Now,
	}
}

// IncrBy increments the counter, starting its TTL on first use.
func (m *Memory) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	c, ok := m.counters[key]
	if !ok || now.After(c.expires) {
		c = counter{expires: now.Add(ttlForKey(key, m.dailyTTL, m.monthTTL))}
	}
	c.value += val
	m.counters[key] = c
	return nil
}

// Get returns the counter value, 0 if absent or expired.
func (m *Memory) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[key]
	if !ok || m.now().After(c.expires) {
		return 0, nil
	}
	return c.value, nil
}
