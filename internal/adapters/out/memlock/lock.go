// Package memlock is a process-local DistributedLock for single-instance deployments
// and tests. It has the same token and TTL semantics as the Redis and NATS locks.
package memlock

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type entry struct {
	token     string
	expiresAt time.Time
}

type Lock struct {
	entries *xsync.Map[string, entry]
	now     func() time.Time
}

func New() *Lock {
	return NewWithClock(time.Now)
}

// NewWithClock builds a lock that reads time from now.
func NewWithClock(now func() time.Time) *Lock {
	return &Lock{
		entries: xsync.NewMap[string, entry](),
		now:     now,
	}
}

// TryAcquire sets key to token unless a live entry holds it.
func (l *Lock) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := l.now()
	acquired := false
	l.entries.Compute(key, func(old entry, loaded bool) (entry, xsync.ComputeOp) {
		if loaded && now.Before(old.expiresAt) {
			return old, xsync.CancelOp
		}
		acquired = true
		return entry{token: token, expiresAt: now.Add(ttl)}, xsync.UpdateOp
	})
	return acquired, nil
}

// Release deletes key only while it still holds token.
func (l *Lock) Release(ctx context.Context, key, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.entries.Compute(key, func(old entry, loaded bool) (entry, xsync.ComputeOp) {
		if loaded && old.token == token {
			return old, xsync.DeleteOp
		}
		return old, xsync.CancelOp
	})
	return nil
}
