package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/tool"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the time until the oldest counted request leaves the window.
	Reset time.Duration
}

// ResetSeconds rounds Reset up to whole seconds, never below one.
func (d *Decision) ResetSeconds() int64 {
	s := int64(math.Ceil(d.Reset.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Limiter admits at most Limit requests per key within any Window.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
}

// RedisLimiter is a sliding-window limiter over a redis sorted set per key.
// Members are request ids scored by their arrival time in milliseconds.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, log *zap.SugaredLogger) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, log: log, now: time.Now}
}

func NewFromConfig(client *redis.Client, cfg *config.Config, log *zap.SugaredLogger) Limiter {
	return NewRedisLimiter(client, cfg.RateLimit.Limit, cfg.RateLimit.Window, log)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + tool.GenerateUUIDV7()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.PExpire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter pipeline failed: %w", err)
	}

	count := int(card.Val())
	if count <= l.limit {
		return &Decision{
			Allowed:   true,
			Limit:     l.limit,
			Remaining: l.limit - count,
			Reset:     l.window,
		}, nil
	}

	// rejected requests do not consume quota
	if err := l.client.ZRem(ctx, key, member).Err(); err != nil {
		logctx.FromCtx(ctx, l.log).Warnw("rate limiter: failed to remove rejected member", "key", key, "err", err)
	}
	reset := l.window
	oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limiter oldest lookup failed: %w", err)
	}
	if len(oldest) > 0 {
		reset = time.Duration(int64(oldest[0].Score)+l.window.Milliseconds()-nowMs) * time.Millisecond
	}
	return &Decision{Allowed: false, Limit: l.limit, Remaining: 0, Reset: reset}, nil
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
