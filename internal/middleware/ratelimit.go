package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter is a sliding-window limiter keyed by client IP. It is
// per process; a multi-instance deployment needs a shared store instead.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewInMemoryRateLimiter starts a limiter allowing limit requests per window.
// Call Close to stop its sweep goroutine.
func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go r.sweep(time.Minute)
	return r
}

func (r *InMemoryRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	valid := r.prune(r.requests[key], now)
	if len(valid) >= r.limit {
		r.requests[key] = valid
		return false
	}
	r.requests[key] = append(valid, now)
	return true
}

func (r *InMemoryRateLimiter) prune(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

func (r *InMemoryRateLimiter) sweep(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-tick.C:
			r.mu.Lock()
			now := r.now()
			for k, times := range r.requests {
				if valid := r.prune(times, now); len(valid) == 0 {
					delete(r.requests, k)
				} else {
					r.requests[k] = valid
				}
			}
			r.mu.Unlock()
		}
	}
}

func (r *InMemoryRateLimiter) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitOr hands requests over the limit to fallback instead of the rest
// of the chain. For routes that must answer the same way whether or not the
// request is counted.
func RateLimitOr(limiter *InMemoryRateLimiter, fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			fallback(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit returns a middleware that limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(limiter.window.Seconds()))
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
