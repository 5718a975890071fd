package ports

import (
	"context"
	"time"
)

// DistributedLock is a cluster-wide mutual exclusion primitive with expiry.
//
// Implementations must satisfy:
//   - TryAcquire succeeds for at most one holder of key until the ttl elapses or the holder releases
//   - A transport or service failure is returned as an error, never as acquired == true
//   - Release is a no-op when token does not hold key
type DistributedLock interface {
	TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}
