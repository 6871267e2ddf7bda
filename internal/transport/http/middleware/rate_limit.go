package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contalabs/accounts-api/internal/core/port"
)

const rateLimitedMessage = "too many requests, please try again later"

// RateLimiter enforces a single sliding-window limit per client IP across
// every route it is mounted on. Store failures fail open: a broken Redis
// must not take the API down with it.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter builds the global rate limiting middleware helper.
func NewRateLimiter(store port.RateLimitStore, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: log,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// Handler returns the Gin middleware enforcing the limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.store == nil || rl.limit <= 0 || rl.window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := rl.now()
		key := "global:" + ip

		if err := rl.store.TrimWindow(ctx, key, rl.window, now); err != nil {
			rl.logger.Warn("rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(ctx, key, rl.window, now)
		if err != nil {
			rl.logger.Warn("rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		reset := now.Add(rl.window)
		if oldest, ok, err := rl.store.OldestAttempt(ctx, key, rl.window, now); err != nil {
			rl.logger.Warn("rate limit oldest lookup failed", zap.Error(err))
		} else if ok {
			reset = oldest.Add(rl.window)
		}

		if count >= rl.limit {
			retryAfter := int(math.Ceil(reset.Sub(now).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.setHeaders(c, 0, reset)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedMessage})
			return
		}

		if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
			rl.logger.Warn("rate limit record failed", zap.Error(err))
			c.Next()
			return
		}

		remaining := rl.limit - count - 1
		if remaining < 0 {
			remaining = 0
		}
		rl.setHeaders(c, remaining, reset)

		c.Next()
	}
}

func (rl *RateLimiter) setHeaders(c *gin.Context, remaining int, reset time.Time) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}
