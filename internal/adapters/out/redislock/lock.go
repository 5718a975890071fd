// Package redislock implements DistributedLock on a single Redis primary.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Lock struct {
	client *redis.Client
}

func New(client *redis.Client) *Lock {
	return &Lock{client: client}
}

// TryAcquire stores token under key with SET NX PX. Any transport error is returned
// with acquired false.
func (l *Lock) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis set nx failed: %w", err)
	}
	return ok, nil
}

// Release removes key when token still holds it.
func (l *Lock) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis release failed: %w", err)
	}
	return nil
}
