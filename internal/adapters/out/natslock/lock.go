// Package natslock implements DistributedLock on a JetStream key-value bucket.
//
// A key is acquired with an atomic Create. Each value carries the holder token and
// its absolute expiry, so an entry left behind by a crashed holder is taken over
// with a revision-checked Update once it expires. The bucket TTL only bounds storage.
package natslock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type Lock struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

func New(kv jetstream.KeyValue) *Lock {
	return NewWithClock(kv, time.Now)
}

func NewWithClock(kv jetstream.KeyValue, now func() time.Time) *Lock {
	return &Lock{kv: kv, now: now}
}

// EnsureBucket creates the lock bucket or returns the existing one.
func EnsureBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "dispatch order locks",
		TTL:         ttl,
		Storage:     jetstream.FileStorage,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure lock bucket %s: %w", bucket, err)
	}
	return kv, nil
}

func (l *Lock) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	key = bucketKey(key)
	now := l.now()
	value := encode(token, now.Add(ttl))

	_, err := l.kv.Create(ctx, key, value)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return false, fmt.Errorf("failed to create lock key: %w", err)
	}

	entry, err := l.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// released between Create and Get; the next caller will win it
			return false, nil
		}
		return false, fmt.Errorf("failed to read lock key: %w", err)
	}

	_, expiresAt, ok := decode(entry.Value())
	if ok && now.Before(expiresAt) {
		return false, nil
	}

	if _, err = l.kv.Update(ctx, key, value, entry.Revision()); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to take over expired lock key: %w", err)
	}
	return true, nil
}

func (l *Lock) Release(ctx context.Context, key, token string) error {
	key = bucketKey(key)

	entry, err := l.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read lock key: %w", err)
	}

	holder, _, ok := decode(entry.Value())
	if !ok || holder != token {
		return nil
	}

	err = l.kv.Delete(ctx, key, jetstream.LastRevision(entry.Revision()))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) && !errors.Is(err, jetstream.ErrKeyExists) {
		return fmt.Errorf("failed to delete lock key: %w", err)
	}
	return nil
}

// bucketKey maps lock keys to valid KV keys; ':' is not allowed in a key.
func bucketKey(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func encode(token string, expiresAt time.Time) []byte {
	return []byte(token + "|" + strconv.FormatInt(expiresAt.UnixNano(), 10))
}

func decode(value []byte) (string, time.Time, bool) {
	token, nanos, found := strings.Cut(string(value), "|")
	if !found {
		return "", time.Time{}, false
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return token, time.Unix(0, n), true
}
