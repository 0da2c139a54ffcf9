package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/utils"
)

// GoalLocker serializes orchestration per goal: at most one in-flight
// workflow per key. Milestone transitions are not idempotent under races,
// so concurrent orchestrations against the same goal are refused, not
// queued.
type GoalLocker interface {
	// TryLock returns ok=false when another workflow holds the key.
	// The returned release func is safe to call once, with any context.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), ok bool, err error)
	Close() error
}

// NewGoalLocker builds a Redis-backed locker when REDIS_ADDR is set and an
// in-process locker otherwise. Single-instance deployments do not need
// Redis for correctness, multi-instance ones do.
func NewGoalLocker(log *logger.Logger) (GoalLocker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-process goal locker")
		return NewMemoryLocker(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          utils.GetEnvAsInt("REDIS_DB", 0, log),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisLocker{
		log: log.With("service", "RedisGoalLocker"),
		rdb: rdb,
	}, nil
}

type redisLocker struct {
	log *logger.Logger
	rdb *goredis.Client
}

// Owner-checked delete so an expired lock reacquired by another workflow is
// never released by the first holder.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, fmt.Errorf("missing lock key")
	}
	token := uuid.NewString()
	fullKey := "goal-lock:" + key
	ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var once sync.Once
	release := func(rctx context.Context) {
		once.Do(func() {
			if err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Err(); err != nil {
				l.log.Warn("goal lock release failed", "key", key, "error", err)
			}
		})
	}
	return release, true, nil
}

func (l *redisLocker) Close() error {
	return l.rdb.Close()
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() GoalLocker {
	return &memoryLocker{held: make(map[string]struct{})}
}

func (l *memoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, fmt.Errorf("missing lock key")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}
	var once sync.Once
	release := func(context.Context) {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, true, nil
}

func (l *memoryLocker) Close() error { return nil }
