package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-KEY LOCK
// Serializes pipeline runs per (user, roadmap) across engine instances.
// SET NX with a random token; release only deletes a lock the caller owns,
// so a run that outlived the TTL cannot free its successor's lock.
// ══════════════════════════════════════════════════════════════════════════════

// releaseScript deletes the lock only when the stored token matches.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KeyLocker implements progress.KeyLocker on Redis.
type KeyLocker struct {
	cache *Cache
	ttl   time.Duration
}

// NewKeyLocker creates a KeyLocker. A non-positive ttl falls back to
// TTLProgressLock.
func NewKeyLocker(cache *Cache, ttl time.Duration) *KeyLocker {
	if ttl <= 0 {
		ttl = TTLProgressLock
	}
	return &KeyLocker{cache: cache, ttl: ttl}
}

// Acquire takes the lock for a progress key. It returns shared.ErrKeyLocked
// when another writer holds it; the caller decides whether to retry.
func (l *KeyLocker) Acquire(ctx context.Context, key shared.ProgressKey) (func(), error) {
	lockKey := LockKey(key.String())
	token := uuid.NewString()

	ok, err := l.cache.Client().SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, shared.ErrKeyLocked
	}

	unlock := func() {
		// Release runs on a fresh context so an already-cancelled pipeline
		// context does not leave the lock held until TTL expiry.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.cache.Client(), []string{lockKey}, token).Err()
	}
	return unlock, nil
}

var _ progress.KeyLocker = (*KeyLocker)(nil)
