package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client key. Buckets of clients
// that stay quiet for longer than the idle period are dropped.
type ClientLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

// NewClientLimiter creates a ClientLimiter allowing limit requests per second
// with the given burst.
func NewClientLimiter(limit rate.Limit, burst int, idle time.Duration) *ClientLimiter {
	return &ClientLimiter{
		buckets: cache.New(idle, idle),
		limit:   limit,
		burst:   burst,
		idle:    idle,
	}
}

// Bucket returns the limiter for key, creating it on first use.
func (l *ClientLimiter) Bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.buckets.Set(key, lim, l.idle)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Set(key, lim, l.idle)
	return lim
}

// RateLimiter rejects clients that exceed their bucket with 429. Clients are
// keyed by gin's ClientIP, which honours forwarding headers only from the
// engine's trusted proxies.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := NewClientLimiter(limit, burst, 10*time.Minute)
	return func(c *gin.Context) {
		if !limiter.Bucket(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}
