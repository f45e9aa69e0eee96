package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RateLimiterConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	// BlockDuration is how long a caller stays blocked after exceeding the limit.
	BlockDuration time.Duration
}

// ModerateRateLimiterConfig for matchmaking endpoints
func ModerateRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 60,
		Window:            time.Minute,
		BlockDuration:     5 * time.Minute,
	}
}

// LenientRateLimiterConfig for read-heavy endpoints
func LenientRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 200,
		Window:            time.Minute,
		BlockDuration:     2 * time.Minute,
	}
}

// Sliding window over a sorted set of request timestamps.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)
redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - current - 1, 0)
local allowed = 0
if current < limit then
	allowed = 1
end
return {allowed, remaining}
`)

func RateLimiterMiddleware(client *redis.Client, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		blockKey := "trio:ratelimit:block:" + user.ID

		ttl, err := client.TTL(ctx, blockKey).Result()
		if err != nil {
			// fail open, the limiter must not take the API down with redis
			logger.Error("failed to check if user is blocked", zap.Error(err), zap.String("userID", user.ID))
			c.Next()
			return
		}
		if ttl > 0 {
			abortTooManyRequests(c, config, ttl)
			return
		}

		allowed, remaining, err := checkRateLimit(ctx, client, user.ID, config)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("userID", user.ID))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			if err := client.Set(ctx, blockKey, "1", config.BlockDuration).Err(); err != nil {
				logger.Error("failed to block user", zap.Error(err), zap.String("userID", user.ID))
			}
			logger.Warn("rate limit exceeded",
				zap.String("userID", user.ID),
				zap.String("path", c.Request.URL.Path),
			)
			abortTooManyRequests(c, config, config.BlockDuration)
			return
		}

		c.Next()
	}
}

func checkRateLimit(ctx context.Context, client *redis.Client, userID string, config RateLimiterConfig) (bool, int, error) {
	now := time.Now()
	res, err := rateLimitScript.Run(ctx, client,
		[]string{"trio:ratelimit:" + userID},
		now.UnixMilli(),
		config.Window.Milliseconds(),
		config.RequestsPerWindow,
		int(config.Window.Seconds())+60,
		strconv.FormatInt(now.UnixNano(), 10),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	return res[0] == 1, int(res[1]), nil
}

func abortTooManyRequests(c *gin.Context, config RateLimiterConfig, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. You have been temporarily blocked.",
		"retry_after": seconds,
	})
}
