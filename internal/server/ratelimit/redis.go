package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/manup/agenda/internal/logging"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "manup:ratelimit:"

type redisLimiter struct {
	client  *redis.Client
	log     logging.Logger
	prefix  string
	timeout time.Duration
}

// NewRedis connects to Redis and returns a limiter shared by every server
// instance using the same database. Redis errors during Allow fail open.
func NewRedis(ctx context.Context, addr, password string, db int, log logging.Logger) (Limiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedis(client, log), nil
}

func newRedis(client *redis.Client, log logging.Logger) *redisLimiter {
	return &redisLimiter{
		client:  client,
		log:     log,
		prefix:  redisKeyPrefix,
		timeout: 250 * time.Millisecond,
	}
}

func (l *redisLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	redisKey := l.prefix + key

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := l.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		pttl = p.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		l.logError(ctx, "incr", err)
		return Decision{Allowed: true}
	}

	counter := incr.Val()
	ttl := pttl.Val()
	// A key without expiry would never reset. That happens on the first hit
	// of a window, or when an earlier PEXPIRE was lost, so repair it here.
	if ttl < 0 {
		if err := l.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			l.logError(ctx, "pexpire", err)
		}
		ttl = window
	}

	return Decision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (l *redisLimiter) Close() {
	if l.client != nil {
		_ = l.client.Close()
	}
}

func (l *redisLimiter) logError(ctx context.Context, op string, err error) {
	if l.log == nil {
		return
	}
	l.log.Error(ctx, "redis rate limiter error", "op", op, "error", err)
}
