package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T, maxAttempts int, window time.Duration) (*SignInThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSignInThrottle(client, newTestLogger(), maxAttempts, window), mr
}

func TestSignInThrottle_AllowsUnderLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3, time.Minute)
	ctx := context.Background()

	assert.True(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))

	throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")

	assert.True(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
}

func TestSignInThrottle_BlocksAtLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3, time.Minute)
	ctx := context.Background()

	for range 3 {
		throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	}

	assert.False(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
}

func TestSignInThrottle_KeyedByEmailAndIP(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")

	require.False(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
	assert.True(t, throttle.Allow(ctx, "alice@example.com", "198.51.100.2"))
	assert.True(t, throttle.Allow(ctx, "bob@example.com", "203.0.113.7"))
}

func TestSignInThrottle_WindowExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	require.False(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))

	mr.FastForward(time.Minute + time.Second)

	assert.True(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
}

func TestSignInThrottle_ResetClearsCounter(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	require.False(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))

	throttle.Reset(ctx, "alice@example.com", "203.0.113.7")

	assert.True(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
}

// A dead Redis fails open: sign-in is allowed rather than locked out.
func TestSignInThrottle_FailsOpenWhenRedisDown(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	mr.Close()

	assert.True(t, throttle.Allow(ctx, "alice@example.com", "203.0.113.7"))
}
