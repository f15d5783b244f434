package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter returns a limiter driven by a manual clock
func newTestLimiter(t *testing.T, perMinute, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{PerMinute: perMinute, Burst: burst, Cleanup: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

// ============================================================================
// Configuration
// ============================================================================

func TestNewRateLimiter_Defaults(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()

	assert.Equal(t, 60, rl.perMin)
	assert.Equal(t, 10, rl.burst)
	assert.InDelta(t, 1.0, float64(rl.limit), 1e-9)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

// ============================================================================
// Allow()
// ============================================================================

func TestAllow_BurstThenDeny(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 60, 3)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := rl.Allow("ip:1")
		require.True(t, allowed, "request %d within burst", i)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, retryAfter := rl.Allow("ip:1")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Second, retryAfter, "one token per second at 60/min")
}

func TestAllow_DeniedRequestDoesNotConsume(t *testing.T) {
	t.Parallel()
	rl, now := newTestLimiter(t, 60, 1)

	allowed, _, _ := rl.Allow("ip:1")
	require.True(t, allowed)
	for i := 0; i < 5; i++ {
		allowed, _, _ = rl.Allow("ip:1")
		require.False(t, allowed)
	}

	*now = now.Add(time.Second)
	allowed, _, _ = rl.Allow("ip:1")
	assert.True(t, allowed, "rejected calls must not push the next token further out")
}

func TestAllow_Refill(t *testing.T) {
	t.Parallel()
	rl, now := newTestLimiter(t, 60, 2)

	rl.Allow("ip:1")
	rl.Allow("ip:1")
	allowed, _, _ := rl.Allow("ip:1")
	require.False(t, allowed)

	*now = now.Add(1500 * time.Millisecond)
	allowed, remaining, _ := rl.Allow("ip:1")
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining, "half a token left rounds down")
}

func TestAllow_SeparateClients(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 60, 1)

	a, _, _ := rl.Allow("ip:1")
	b, _, _ := rl.Allow("ip:2")
	again, _, _ := rl.Allow("ip:1")

	assert.True(t, a)
	assert.True(t, b)
	assert.False(t, again)
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 60, 50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := rl.Allow("ip:shared"); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, granted, "a frozen clock grants exactly the burst")
}

func TestCleanupIdle(t *testing.T) {
	t.Parallel()
	rl, now := newTestLimiter(t, 60, 1)

	rl.Allow("ip:old")
	*now = now.Add(30 * time.Minute)
	rl.Allow("ip:fresh")
	*now = now.Add(45 * time.Minute)

	rl.cleanupIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "ip:old")
	assert.Contains(t, rl.clients, "ip:fresh")
}

// ============================================================================
// Middleware
// ============================================================================

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 120, 1)

	calls := 0
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/marketing/generate", nil)
		req.RemoteAddr = "192.168.1.7:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "120", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "application/problem+json", second.Header().Get("Content-Type"))
	retry, err := strconv.Atoi(second.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Equal(t, 1, retry, "half-second wait rounds up to one second")
	assert.Equal(t, 1, calls)
}
