package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/metrics"
	"github.com/justsurfingit/jobportal-admin/internal/response"
	"github.com/redis/go-redis/v9"
)

// RateLimiterConfig configures a fixed-window limiter shared across replicas
// through Redis.
type RateLimiterConfig struct {
	Requests int           // allowed requests per window
	Window   time.Duration // window length
	Prefix   string        // redis key prefix
	KeyFunc  func(*gin.Context) string
}

var DefaultRateLimiterConfig = RateLimiterConfig{
	Requests: 10,
	Window:   time.Minute,
	Prefix:   "ratelimit",
}

// combinedKey limits per client IP and route.
func combinedKey(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.ClientIP() + ":" + route
}

// RateLimiter returns a middleware counting requests with INCR/EXPIRE.
// A nil client disables limiting. Redis failures let the request through.
func RateLimiter(rdb *redis.Client, log logger.Logger, config ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRateLimiterConfig.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateLimiterConfig.Window
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRateLimiterConfig.Prefix
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = combinedKey
	}

	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	windowSeconds := int64(cfg.Window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		window := time.Now().Unix() / windowSeconds
		key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, cfg.KeyFunc(c), window)

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, cfg.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn("rate limiter unavailable", map[string]interface{}{"error": err.Error()})
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.FormatInt(windowSeconds, 10))
			response.Abort(c, log, apperrors.TooManyRequests())
			return
		}

		c.Next()
	}
}
