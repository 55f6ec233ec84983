// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	rl := &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}

	// Evict idle client entries periodically
	go rl.cleanup()

	return rl
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[key] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, limiter := range rl.limiters {
			if limiter.Tokens() == float64(rl.burst) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GeneralRateLimit allows 100 requests per minute per IP.
func GeneralRateLimit() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/100), 100).middleware()
}

// AuthRateLimit allows 10 requests per minute per IP for login/register.
func AuthRateLimit() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/10), 10).middleware()
}

// CheckoutRateLimit allows 20 checkout attempts per minute per IP.
func CheckoutRateLimit() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/20), 20).middleware()
}

// UploadRateLimit allows 15 uploads per minute per IP.
func UploadRateLimit() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/15), 15).middleware()
}
