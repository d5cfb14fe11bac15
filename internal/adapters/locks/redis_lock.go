package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	redisclient "github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements providers.Locker with SET NX PX
type RedisLocker struct {
	client *redisclient.Client
}

// NewRedisLocker creates a new Redis advisory locker
func NewRedisLocker(client *redisclient.Client) providers.Locker {
	return &RedisLocker{client: client}
}

// TryLock attempts to take key for ttl without waiting
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.New().String()
	fullKey := keyPrefix + key

	ok, err := l.client.Client().SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client.Client(), []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
