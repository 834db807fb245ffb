package record

import (
	"context"
	"slices"
	"sync"

	"github.com/kailas-cloud/patentdex/internal/db"
)

// fakeStore is an in-memory stand-in for the Redis primitives the repository uses.
type fakeStore struct {
	mu     sync.Mutex
	kv     map[string][]byte
	zsets  map[string]map[string]struct{}
	hashes map[string]map[string]string

	pingErr   error
	insertErr error
	zcalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		kv:     make(map[string][]byte),
		zsets:  make(map[string]map[string]struct{}),
		hashes: make(map[string]map[string]string),
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = f.kv[k]
	}
	return out, nil
}

func (f *fakeStore) ExistsMulti(_ context.Context, keys []string) ([]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(keys))
	for i, k := range keys {
		_, out[i] = f.kv[k]
	}
	return out, nil
}

func (f *fakeStore) ZRangeAfter(_ context.Context, key, after string, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zcalls++
	members := make([]string, 0, len(f.zsets[key]))
	for m := range f.zsets[key] {
		if after == "" || m > after {
			members = append(members, m)
		}
	}
	slices.Sort(members)
	if len(members) > count {
		members = members[:count]
	}
	return members, nil
}

func (f *fakeStore) ZCard(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.zsets[key])), nil
}

func (f *fakeStore) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) InsertUnique(_ context.Context, key string, value []byte, indexKey, member string) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kv[key]; ok {
		return false, nil
	}
	f.kv[key] = value
	z, ok := f.zsets[indexKey]
	if !ok {
		z = make(map[string]struct{})
		f.zsets[indexKey] = z
	}
	z[member] = struct{}{}
	return true, nil
}
