package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL        = 30 * time.Second
	defaultRetryEvery = 25 * time.Millisecond
	defaultWait       = 10 * time.Second
	defaultPrefix     = "lock:"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares locks across API instances with SET NX PX.
// A crashed holder's keys expire after TTL.
type RedisLocker struct {
	Rdb        *redis.Client
	TTL        time.Duration
	RetryEvery time.Duration
	MaxWait    time.Duration
	Prefix     string
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait())
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		key := l.prefix() + k
		if err := l.acquire(waitCtx, key, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, key)
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryEvery())
	defer ticker.Stop()
	for {
		ok, err := l.Rdb.SetNX(ctx, key, token, l.ttl()).Result()
		if err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.Rdb, []string{keys[i]}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", keys[i]).Msg("lock release failed")
		}
	}
}

func (l *RedisLocker) ttl() time.Duration {
	if l.TTL > 0 {
		return l.TTL
	}
	return defaultTTL
}

func (l *RedisLocker) retryEvery() time.Duration {
	if l.RetryEvery > 0 {
		return l.RetryEvery
	}
	return defaultRetryEvery
}

func (l *RedisLocker) maxWait() time.Duration {
	if l.MaxWait > 0 {
		return l.MaxWait
	}
	return defaultWait
}

func (l *RedisLocker) prefix() string {
	if l.Prefix != "" {
		return l.Prefix
	}
	return defaultPrefix
}
