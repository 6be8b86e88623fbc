// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/config"
)

// RateLimit implements a fixed one-minute window per client IP in Redis,
// plus a one-second window capped at the burst size when one is configured.
// Without a Redis client every request passes.
func RateLimit(cfg *config.Config, redisClient *redis.Client, logger logrus.FieldLogger) gin.HandlerFunc {
	limit := cfg.Security.RateLimitPerMinute
	burst := cfg.Security.RateLimitBurst

	return func(c *gin.Context) {
		if redisClient == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		current, err := hitWindow(ctx, redisClient, key, time.Minute)
		burstCount := 0
		if err == nil && burst > 0 {
			burstCount, err = hitWindow(ctx, redisClient, key+":burst", time.Second)
		}
		if err != nil {
			// fail open
			logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		remaining := limit - current
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

		if current > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}
		if burst > 0 && burstCount > burst {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests in a short time",
				"retry_after": 1,
			})
			return
		}

		c.Next()
	}
}

// hitWindow counts a request against key, starting the window on the first hit
func hitWindow(ctx context.Context, redisClient *redis.Client, key string, window time.Duration) (int, error) {
	count, err := redisClient.Incr(ctx, key).Result()
	if err == nil && count == 1 {
		err = redisClient.Expire(ctx, key, window).Err()
	}
	return int(count), err
}
