// Package memory provides in-process fallbacks for infrastructure that is
// normally backed by Redis. Used in development when Redis is disabled;
// single-process only.
package memory

import (
	"context"
	"sync"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// KeyLocker serializes pipeline runs per progress key within one process.
// Unlike the Redis locker it has no TTL: the lock is released when the
// unlock function runs, and a crashed process loses all locks anyway.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewKeyLocker creates an in-process KeyLocker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]struct{})}
}

// Acquire takes the lock for a key, returning an unlock function.
// Returns shared.ErrKeyLocked if the key is already held.
func (l *KeyLocker) Acquire(_ context.Context, key shared.ProgressKey) (func(), error) {
	k := key.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[k]; held {
		return nil, shared.ErrKeyLocked
	}
	l.locks[k] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.locks, k)
			l.mu.Unlock()
		})
	}, nil
}
