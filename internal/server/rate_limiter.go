package server

import (
	"sync"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/gin-gonic/gin"
)

// rateLimiter is a fixed-window counter per key. A non-positive limit
// allows everything.
type rateLimiter struct {
	limit  int
	window time.Duration
	clock  clock.Clock
	mu     sync.Mutex
	items  map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration, clk clock.Clock) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		clock:  clk,
		items:  make(map[string]*rateLimitEntry),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if key == "" {
		return false
	}

	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, entry := range r.items {
		if now.Sub(entry.windowStart) > r.window {
			delete(r.items, k)
		}
	}

	entry := r.items[key]
	if entry == nil {
		entry = &rateLimitEntry{windowStart: now}
		r.items[key] = entry
	}

	if entry.count >= r.limit {
		return false
	}

	entry.count++
	return true
}

// SubmitRateLimit caps card submissions per actor.
func (s *Server) SubmitRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		if !s.submitLimiter.Allow(actor.String()) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
