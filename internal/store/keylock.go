package store

import (
	"context"
	"sync"
)

// KeyLock serializes work per string key while leaving distinct keys fully
// independent. Drivers without row-level locking (memory, sqlite) use it to
// make the conflict-check-and-insert of one room exclusive without blocking
// commits for other rooms.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewKeyLock returns an empty lock table.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]chan struct{})}
}

// Acquire blocks until the key's lock is held or ctx is done. On success it
// returns a release function that must be called exactly once. When the
// context expires first, Acquire returns ErrBusy so callers surface a
// retryable outcome instead of a silent conflict.
func (k *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	k.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ErrBusy
	}
}
