// Package cache holds the shared Redis client and the cache-aside helpers
// used for public profiles.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shelfswap/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds failed commands into shelfswap_redis_errors_total.
// Cache misses are not errors.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

// Connect dials addr, which is either host:port or a redis:// URL, and
// pings it once.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// InitRedis installs the shared client. A blank addr or an unreachable
// server leaves Redis disabled; callers treat that as a permanent miss.
func InitRedis(addr string) {
	if strings.TrimSpace(addr) == "" {
		SetClient(nil)
		return
	}
	c, err := Connect(context.Background(), addr)
	if err != nil {
		slog.Warn("continuing without redis", slog.String("error", err.Error()))
		SetClient(nil)
		return
	}
	slog.Info("redis connected", slog.String("addr", c.Options().Addr))
	SetClient(c)
}

// SetClient replaces the shared client. nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}

func GetClient() *redis.Client {
	return client
}
