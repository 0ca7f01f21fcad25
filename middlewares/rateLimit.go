package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Idle client buckets are swept once the table grows past limiterSweepSize.
const (
	limiterSweepSize = 10000
	limiterIdleTTL   = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	limiters = make(map[string]*clientLimiter)
	mu       sync.Mutex
)

func getLimiter(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	entry, exists := limiters[key]
	if !exists {
		if len(limiters) >= limiterSweepSize {
			for k, l := range limiters {
				if now.Sub(l.lastSeen) > limiterIdleTTL {
					delete(limiters, k)
				}
			}
		}
		entry = &clientLimiter{limiter: rate.NewLimiter(r, b)}
		limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware allows b requests in a burst and r per second after that,
// per key.
func RateLimitMiddleware(r rate.Limit, b int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		limiter := getLimiter(key, r, b)

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests. Please slow down."})
			return
		}

		c.Next()
	}
}

// ClientIPKey buckets requests by route and client IP.
func ClientIPKey(scope string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return scope + ":" + c.ClientIP()
	}
}
