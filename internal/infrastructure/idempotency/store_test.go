package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*Record, bool, error)
	Complete(ctx context.Context, key string, record Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ""), mr
}

func newMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, s store)) {
	t.Run("redis", func(t *testing.T) {
		s, _ := newRedisStore(t)
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, newMemoryStore(t))
	})
}

func TestStore_ReserveCompleteReplay(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		existing, reserved, err := s.Reserve(ctx, "u1:t5:key-1", "fp-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, reserved)
		assert.Nil(t, existing)

		existing, reserved, err = s.Reserve(ctx, "u1:t5:key-1", "fp-a", time.Minute)
		require.NoError(t, err)
		assert.False(t, reserved)
		require.NotNil(t, existing)
		assert.False(t, existing.Completed)
		assert.Equal(t, "fp-a", existing.Fingerprint)

		require.NoError(t, s.Complete(ctx, "u1:t5:key-1", Record{
			Fingerprint: "fp-a",
			Status:      201,
			ContentType: "application/json",
			Body:        []byte(`{"success":true}`),
		}, time.Minute))

		existing, reserved, err = s.Reserve(ctx, "u1:t5:key-1", "fp-a", time.Minute)
		require.NoError(t, err)
		assert.False(t, reserved)
		require.NotNil(t, existing)
		assert.True(t, existing.Completed)
		assert.Equal(t, 201, existing.Status)
		assert.Equal(t, "application/json", existing.ContentType)
		assert.JSONEq(t, `{"success":true}`, string(existing.Body))
	})
}

func TestStore_Release(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		_, reserved, err := s.Reserve(ctx, "k", "fp", time.Minute)
		require.NoError(t, err)
		require.True(t, reserved)

		require.NoError(t, s.Release(ctx, "k"))

		_, reserved, err = s.Reserve(ctx, "k", "fp", time.Minute)
		require.NoError(t, err)
		assert.True(t, reserved)
	})
}

func TestStore_ConcurrentReserve(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, reserved, err := s.Reserve(ctx, "race", "fp", time.Minute)
				assert.NoError(t, err)
				if reserved {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
	})
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	_, reserved, err := s.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)
	assert.True(t, mr.Exists(defaultKeyPrefix+"k"))

	mr.FastForward(2 * time.Minute)

	_, reserved, err = s.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "test:")

	_, _, err := s.Reserve(context.Background(), "abc", "fp", time.Minute)
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:abc"))
	assert.False(t, mr.Exists(defaultKeyPrefix+"abc"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	_, _, err := s.Reserve(context.Background(), "k", "fp", time.Minute)
	assert.Error(t, err)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := newMemoryStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, reserved, err := s.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)

	now = now.Add(time.Minute)
	_, reserved, err = s.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s := newMemoryStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, err := s.Reserve(ctx, "short", "fp", time.Second)
	require.NoError(t, err)
	_, _, err = s.Reserve(ctx, "long", "fp", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	now = now.Add(time.Minute)
	s.sweep()

	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CompleteCopiesBody(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()
	body := []byte("original")

	require.NoError(t, s.Complete(ctx, "k", Record{Fingerprint: "fp", Status: 200, Body: body}, time.Minute))
	body[0] = 'X'

	existing, _, err := s.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "original", string(existing.Body))
}

func TestMemoryStore_Close(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.Reserve(context.Background(), "k", "fp", time.Minute)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Complete(context.Background(), "k", Record{}, time.Minute), ErrStoreClosed)
}
