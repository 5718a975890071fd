package natslock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/adapters/out/natslock"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startKV runs an in-process JetStream server and returns a fresh lock bucket.
func startKV(t *testing.T) jetstream.KeyValue {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	kv, err := natslock.EnsureBucket(t.Context(), js, "dispatch-locks", 10*time.Minute)
	require.NoError(t, err)
	return kv
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTryAcquire_FirstWinsSecondLoses(t *testing.T) {
	lock := natslock.New(startKV(t))
	ctx := t.Context()

	ok, err := lock.TryAcquire(ctx, "order:lock:1", "token-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.TryAcquire(ctx, "order:lock:1", "token-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lock.TryAcquire(ctx, "order:lock:2", "token-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestTryAcquire_ConcurrentCallers_OneWinner(t *testing.T) {
	lock := natslock.New(startKV(t))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := lock.TryAcquire(t.Context(), "order:lock:race", string(rune('a'+i)), time.Minute)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestTryAcquire_ExpiredHolder_IsTakenOver(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	lock := natslock.NewWithClock(startKV(t), clock.Now)
	ctx := t.Context()

	ok, err := lock.TryAcquire(ctx, "order:lock:1", "token-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(30 * time.Second)
	ok, err = lock.TryAcquire(ctx, "order:lock:1", "token-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(31 * time.Second)
	ok, err = lock.TryAcquire(ctx, "order:lock:1", "token-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// the stale holder can no longer release the new one
	require.NoError(t, lock.Release(ctx, "order:lock:1", "token-a"))
	ok, err = lock.TryAcquire(ctx, "order:lock:1", "token-c", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelease_FreesKeyForNextHolder(t *testing.T) {
	lock := natslock.New(startKV(t))
	ctx := t.Context()

	_, err := lock.TryAcquire(ctx, "order:lock:1", "token-a", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx, "order:lock:1", "token-a"))

	ok, err := lock.TryAcquire(ctx, "order:lock:1", "token-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease_UnknownKey_NoError(t *testing.T) {
	lock := natslock.New(startKV(t))

	require.NoError(t, lock.Release(t.Context(), "order:lock:none", "token-a"))
}
