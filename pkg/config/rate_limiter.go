package config

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	ct "taskmanager/pkg/context"
)

const DefaultRateLimitRoute = "default"

// RateLimitMetrics receives one call per request that passes through the limiter.
type RateLimitMetrics interface {
	RecordRateLimitHit(ctx context.Context, path, keyType string)
	RecordRateLimitAllowed(ctx context.Context, path, keyType string)
}

type RateLimiter struct {
	cache   *cache.Cache
	// config is never written after NewRateLimiter, so reads need no lock.
	config  map[string]RateLimitConfig
	logger  *zap.Logger
	metrics RateLimitMetrics
	mutex   sync.Mutex
	now     func() time.Time
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

func NewRateLimiter(configs map[string]RateLimitConfig, logger *zap.Logger, metrics RateLimitMetrics) *RateLimiter {
	if configs == nil {
		configs = DefaultRateLimits()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		config:  maps.Clone(configs),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()

		if path == "" {
			path = c.Request.URL.Path
		}

		route := c.Request.Method + " " + path

		config, exists := rl.config[route]

		if !exists {
			route = DefaultRateLimitRoute
			config, exists = rl.config[route]

			if !exists {
				c.Next()
				return
			}
		}

		keyType, identifier := "ip", c.ClientIP()

		if config.ByUser {
			if userID := c.GetString(ct.UserIDKey); userID != "" {
				keyType, identifier = "user", userID
			}
		}

		key := fmt.Sprintf("rate_limit:%s:%s", route, identifier)
		allowed, remaining, resetTime := rl.checkRateLimit(key, config)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", config.Requests),
				zap.Duration("window", config.Window))

			retryAfter := int(resetTime.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"details": gin.H{
					"limit":       config.Requests,
					"window":      config.Window.String(),
					"retry_after": retryAfter,
				},
			})

			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

// checkRateLimit counts the request in a fixed window starting at the first
// request seen for key.
func (rl *RateLimiter) checkRateLimit(key string, config RateLimitConfig) (bool, int, time.Time) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if item, found := rl.cache.Get(key); found {
		entry := item.(RateLimitEntry)

		if now.Before(entry.ResetTime) {
			if entry.Count >= config.Requests {
				return false, 0, entry.ResetTime
			}

			entry.Count++
			rl.cache.Set(key, entry, entry.ResetTime.Sub(now))

			return true, config.Requests - entry.Count, entry.ResetTime
		}
	}

	resetTime := now.Add(config.Window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, config.Window)

	return true, config.Requests - 1, resetTime
}
