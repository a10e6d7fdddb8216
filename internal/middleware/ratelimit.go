package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"

	"shelfswap/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoLimiterStore = errors.New("rate limit store unavailable")

// Per-route limits only apply in production-like environments.
var unlimitedEnvs = []string{"test", "development", "stress"}

func rateLimitBypassed() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return slices.Contains(unlimitedEnvs, env)
}

func rateLimitKey(resource, subject string) string {
	return "rl:" + resource + ":" + subject
}

// CheckRateLimit records one hit for subject on resource in a fixed window
// and returns whether the hit fits under limit and how many hits remain.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, subject string, limit int, window time.Duration) (bool, int, error) {
	if rateLimitBypassed() {
		return true, limit, nil
	}
	if rdb == nil {
		return false, 0, errNoLimiterStore
	}

	key := rateLimitKey(resource, subject)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	// A fresh counter, or one that lost its expiry, starts a new window.
	if ttl.Val() < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}

	hits := int(incr.Val())
	return hits <= limit, max(limit-hits, 0), nil
}

// RateLimit allows limit requests per window for each caller on one
// resource. Callers are keyed by user id once authenticated, else by IP. The
// resource defaults to the request path. When Redis is unavailable requests
// pass through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			subject = fmt.Sprintf("user:%v", uid)
		}
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, remaining, err := CheckRateLimit(c.UserContext(), rdb, resource, subject, limit, window)
		if err != nil {
			if !errors.Is(err, errNoLimiterStore) {
				Logger.WarnContext(c.UserContext(), "rate limit check failed",
					slog.String("resource", resource),
					slog.String("error", err.Error()))
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Set("Retry-After", retryAfter)
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		}
		return c.Next()
	}
}
