package bidding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Latch guarantees the auto-close fires at most once per request until it is
// released after a failure.
type Latch interface {
	// TryAcquire sets the latch and reports whether this caller set it.
	TryAcquire(ctx context.Context, requestID int64) (bool, error)
	Release(ctx context.Context, requestID int64) error
}

// MemoryLatch is a process-local latch. An entry stays set until Release;
// long-lived holders such as the watcher release settled entries themselves.
type MemoryLatch struct {
	mu  sync.Mutex
	set map[int64]struct{}
}

var _ Latch = (*MemoryLatch)(nil)

// NewMemoryLatch creates an empty latch.
func NewMemoryLatch() *MemoryLatch {
	return &MemoryLatch{set: make(map[int64]struct{})}
}

func (l *MemoryLatch) TryAcquire(_ context.Context, requestID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.set[requestID]; ok {
		return false, nil
	}
	l.set[requestID] = struct{}{}
	return true, nil
}

func (l *MemoryLatch) Release(_ context.Context, requestID int64) error {
	l.mu.Lock()
	delete(l.set, requestID)
	l.mu.Unlock()
	return nil
}

// IsSet reports whether the latch for requestID is held.
func (l *MemoryLatch) IsSet(requestID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.set[requestID]
	return ok
}

// redisCmds is the subset of the go-redis client used by RedisLatch.
type redisCmds interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DefaultLatchTTL bounds how long a crashed holder blocks other replicas.
const DefaultLatchTTL = 10 * time.Minute

// RedisLatch shares the latch between watcher replicas.
type RedisLatch struct {
	client redisCmds
	prefix string
	ttl    time.Duration
	owner  string
}

var _ Latch = (*RedisLatch)(nil)

// NewRedisLatch creates a latch storing keys under prefix. owner identifies
// this replica in the stored value.
func NewRedisLatch(client redis.Cmdable, prefix, owner string, ttl time.Duration) *RedisLatch {
	if prefix == "" {
		prefix = "fastservices:autoclose"
	}
	if ttl <= 0 {
		ttl = DefaultLatchTTL
	}
	return &RedisLatch{client: client, prefix: prefix, ttl: ttl, owner: owner}
}

func (l *RedisLatch) key(requestID int64) string {
	return fmt.Sprintf("%s:%d", l.prefix, requestID)
}

func (l *RedisLatch) TryAcquire(ctx context.Context, requestID int64) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(requestID), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire auto-close latch: %w", err)
	}
	return ok, nil
}

func (l *RedisLatch) Release(ctx context.Context, requestID int64) error {
	if err := l.client.Del(ctx, l.key(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to release auto-close latch: %w", err)
	}
	return nil
}
