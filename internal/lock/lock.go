// Package lock serializes uploads that target the same collection name, so
// two concurrent requests cannot race the create-then-upsert sequence.
package lock

import (
	"context"
	"sync"
	"time"

	"edu-assistant-platform/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyedLocker acquires a mutex scoped to a single key. The returned release
// function must be called on every exit path.
type KeyedLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is the in-process implementation: one mutex per key, reference
// counted so idle entries do not accumulate.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*lockEntry)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	release := func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
	return release, nil
}

// RedisLocker coordinates across processes with SET NX PX and a token
// compare on release. The TTL bounds lock lifetime if a holder crashes.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

const lockRetryInterval = 100 * time.Millisecond

// releaseScript deletes the lock only if the caller still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "ingestlock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	release := func() {
		if err := releaseScript.Run(context.Background(), l.rdb, []string{lockKey}, token).Err(); err != nil {
			logger.Warn("Failed to release collection lock", "key", key, "error", err)
		}
	}
	return release, nil
}
