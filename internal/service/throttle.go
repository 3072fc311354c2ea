package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignInThrottle limits failed credential attempts per email and source IP.
// It fails open: if Redis is unreachable, sign-in proceeds rather than
// locking everyone out.
type SignInThrottle struct {
	client      *redis.Client
	logger      *slog.Logger
	maxAttempts int
	window      time.Duration
}

// NewSignInThrottle creates a throttle allowing maxAttempts failures per
// window for each email+IP pair.
func NewSignInThrottle(client *redis.Client, logger *slog.Logger, maxAttempts int, window time.Duration) *SignInThrottle {
	return &SignInThrottle{
		client:      client,
		logger:      logger,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (t *SignInThrottle) key(email, ip string) string {
	return fmt.Sprintf("signin:fail:%s:%s", strings.ToLower(email), ip)
}

// Allow reports whether another credential attempt is permitted.
func (t *SignInThrottle) Allow(ctx context.Context, email, ip string) bool {
	if t.client == nil {
		return true
	}

	count, err := t.client.Get(ctx, t.key(email, ip)).Int()
	if err != nil {
		if err != redis.Nil {
			t.logger.WarnContext(ctx, "throttle lookup failed", slog.String("error", err.Error()))
		}
		return true
	}
	return count < t.maxAttempts
}

// RecordFailure counts a failed attempt. The counter expires after the
// window so lockouts heal on their own.
func (t *SignInThrottle) RecordFailure(ctx context.Context, email, ip string) {
	if t.client == nil {
		return
	}

	key := t.key(email, ip)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.WarnContext(ctx, "throttle record failed", slog.String("error", err.Error()))
	}
}

// Reset clears the failure counter after a successful sign-in.
func (t *SignInThrottle) Reset(ctx context.Context, email, ip string) {
	if t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(email, ip)).Err(); err != nil {
		t.logger.WarnContext(ctx, "throttle reset failed", slog.String("error", err.Error()))
	}
}
