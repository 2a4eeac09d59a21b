package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// KeyedLocker hands out one exclusive lock per key.
// Entries are dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewKeyedLocker creates an empty locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until key is free or ctx is done
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.release(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.release(key, e)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
