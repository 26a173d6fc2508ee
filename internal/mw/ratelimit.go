package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipEntry pairs a limiter with its last use so stale entries can be evicted.
type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter stores a token-bucket limiter per client IP.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*ipEntry
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the rate limiter for an IP address, creating one on
// first sight.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.ips[ip]
	if !exists {
		entry = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// evictStale drops limiters not used within maxAge.
func (i *IPRateLimiter) evictStale(maxAge time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for ip, entry := range i.ips {
		if entry.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
		}
	}
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)

	go func() {
		for range time.Tick(10 * time.Minute) {
			limiter.evictStale(time.Hour)
		}
	}()

	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
