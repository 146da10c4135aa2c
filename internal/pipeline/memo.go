package pipeline

import (
	"context"
	"sync"
)

// Memo is a run-scoped fetch cache. A stored value is kept verbatim, even
// when it is a typed nil: "fetched and absent" is a cache hit, only "never
// attempted" triggers a fetch.
//
// GetOrFetch deliberately releases the lock around the fetch. Two workers
// racing on the same key may both hit the network and one result overwrites
// the other, but both are equally fresh within a run and holding the lock
// across a remote call would serialize every phase worker behind the
// slowest response.
type Memo[V any] struct {
	mu      sync.Mutex
	entries map[string]V
}

// NewMemo returns an empty cache.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V)}
}

// GetOrFetch returns the cached value for key, fetching and storing it on a
// miss. Fetch errors are returned without poisoning the cache, so a later
// call retries.
func (m *Memo[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context, key string) (V, error)) (V, error) {
	m.mu.Lock()
	if v, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err := fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
	return v, nil
}

// Get returns the cached value for key without fetching.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

// Contains reports whether key has been fetched, absent results included.
func (m *Memo[V]) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of cached keys.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
