package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := time.Unix(1_700_000_000, 0)
	l := NewRedisLimiter(client, limit, window, zap.NewNop().Sugar())
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllow_FourthRequestInWindowIsRejected(t *testing.T) {
	l, clock := newTestLimiter(t, 3, 60*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "checkout-rate-limit:u1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2-i, d.Remaining)
		*clock = clock.Add(5 * time.Second)
	}

	d, err := l.Allow(ctx, "checkout-rate-limit:u1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	// first request was 15s ago, so it leaves the window in 45s
	require.Equal(t, 45*time.Second, d.Reset)
	require.Equal(t, int64(45), d.ResetSeconds())
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	d, err := l.Allow(ctx, "checkout-rate-limit:u1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "pro-plan-rate-limit:u1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "checkout-rate-limit:u2")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "checkout-rate-limit:u1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestAllow_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(t, 3, 60*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	// rejections do not extend the block
	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.False(t, d.Allowed)
	}

	*clock = clock.Add(61 * time.Second)
	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 2, d.Remaining)
}

func TestAllow_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedisLimiter(client, 3, time.Minute, zap.NewNop().Sugar())
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	require.Error(t, err)
}

func TestDecision_ResetSecondsRoundsUp(t *testing.T) {
	require.Equal(t, int64(1), (&Decision{Reset: 0}).ResetSeconds())
	require.Equal(t, int64(1), (&Decision{Reset: 200 * time.Millisecond}).ResetSeconds())
	require.Equal(t, int64(3), (&Decision{Reset: 2100 * time.Millisecond}).ResetSeconds())
}
