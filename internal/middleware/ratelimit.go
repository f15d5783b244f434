package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/forgo/herald/internal/model"
)

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	perMin   int
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	PerMinute int           // Sustained requests per minute (default 60)
	Burst     int           // Bucket size (default 10)
	Cleanup   time.Duration // Sweep interval for idle clients (default 5 minutes)
}

// NewRateLimiter creates a new rate limiter and starts its idle sweep
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    rate.Limit(float64(cfg.PerMinute) / 60),
		perMin:   cfg.PerMinute,
		burst:    cfg.Burst,
		idleTTL:  cfg.Cleanup,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go rl.cleanupLoop(cfg.Cleanup)

	return rl
}

// Stop stops the idle sweep
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Allow takes a token for key. When denied, retryAfter is how long until a
// token is available.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Floor(c.limiter.TokensAt(now))), 0
}

// RateLimit returns a middleware that applies per-client rate limiting
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := limiter.Allow(ClientKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.perMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				model.NewRateLimitError(secs).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
