package moderation

import (
	"context"
	"sync"
)

// keyedMutex serializes operations per key while letting different keys run
// fully in parallel. Entries are reference counted and removed as soon as the
// last holder releases, so the map stays bounded by current concurrency
// rather than by the number of members ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*mutexEntry
}

type mutexEntry struct {
	sem  chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*mutexEntry)}
}

// Acquire blocks until the key's lock is held or ctx expires. On success the
// returned func releases the lock.
func (k *keyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &mutexEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			k.put(key, entry)
		}, nil
	case <-ctx.Done():
		k.put(key, entry)
		return nil, ErrConcurrencyTimeout
	}
}

func (k *keyedMutex) put(key string, entry *mutexEntry) {
	k.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
