package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/freelancehub/freelancehub/internal/config"
)

// ---------------------------------------------------------------------------
// Config constructors
// ---------------------------------------------------------------------------

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerMinute != 200 {
		t.Errorf("RequestsPerMinute = %d, want 200", cfg.RequestsPerMinute)
	}
	if cfg.BurstSize != 50 {
		t.Errorf("BurstSize = %d, want 50", cfg.BurstSize)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}

func TestAuthRateLimitConfig(t *testing.T) {
	cfg := AuthRateLimitConfig()
	if cfg.RequestsPerMinute != 10 {
		t.Errorf("RequestsPerMinute = %d, want 10", cfg.RequestsPerMinute)
	}
	if cfg.BurstSize != 5 {
		t.Errorf("BurstSize = %d, want 5", cfg.BurstSize)
	}
}

// ---------------------------------------------------------------------------
// NewLimiterFromConfig
// ---------------------------------------------------------------------------

func TestNewLimiterFromConfig_Memory(t *testing.T) {
	limiter, err := NewLimiterFromConfig(config.RateLimitingConfig{
		Backend:           "memory",
		RequestsPerMinute: 60,
		Burst:             10,
	})
	if err != nil {
		t.Fatalf("NewLimiterFromConfig() error: %v", err)
	}
	defer limiter.Stop()

	if _, ok := limiter.(*RateLimiter); !ok {
		t.Errorf("limiter type = %T, want *RateLimiter", limiter)
	}
	if limiter.Limit() != 60 {
		t.Errorf("Limit() = %d, want 60", limiter.Limit())
	}
}

func TestNewLimiterFromConfig_EmptyBackendIsMemory(t *testing.T) {
	limiter, err := NewLimiterFromConfig(config.RateLimitingConfig{
		RequestsPerMinute: 60,
		Burst:             10,
	})
	if err != nil {
		t.Fatalf("NewLimiterFromConfig() error: %v", err)
	}
	defer limiter.Stop()

	if _, ok := limiter.(*RateLimiter); !ok {
		t.Errorf("limiter type = %T, want *RateLimiter", limiter)
	}
}

func TestNewLimiterFromConfig_UnknownBackend(t *testing.T) {
	_, err := NewLimiterFromConfig(config.RateLimitingConfig{Backend: "memcached"})
	if err == nil {
		t.Error("NewLimiterFromConfig() expected error for unknown backend, got nil")
	}
}

func TestNewLimiterFromConfig_RedisUnreachable(t *testing.T) {
	// Point at a port nothing listens on; the constructor pings and must fail
	// fast rather than return a limiter that silently allows everything.
	_, err := NewLimiterFromConfig(config.RateLimitingConfig{
		Backend:           "redis",
		RequestsPerMinute: 60,
		Redis:             config.RedisConfig{Addr: "127.0.0.1:1"},
	})
	if err == nil {
		t.Error("NewLimiterFromConfig() expected error for unreachable redis, got nil")
	}
}

// ---------------------------------------------------------------------------
// In-memory token bucket
// ---------------------------------------------------------------------------

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, _, err := rl.Allow(ctx, "client-a")
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed within burst", i+1)
		}
	}

	allowed, _, _ := rl.Allow(ctx, "client-a")
	if allowed {
		t.Error("request beyond burst allowed, want denied")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	ctx := context.Background()
	if allowed, _, _ := rl.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first request for client-a denied")
	}
	if allowed, _, _ := rl.Allow(ctx, "client-a"); allowed {
		t.Error("second request for client-a allowed, want denied")
	}
	if allowed, _, _ := rl.Allow(ctx, "client-b"); !allowed {
		t.Error("first request for client-b denied, want independent budget")
	}
}

func TestRateLimiter_TokensRefill(t *testing.T) {
	// 600 rpm = 10 tokens/second, so a drained bucket regains a token quickly.
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	ctx := context.Background()
	rl.Allow(ctx, "client-a")
	if allowed, _, _ := rl.Allow(ctx, "client-a"); allowed {
		t.Fatal("bucket should be drained")
	}

	time.Sleep(150 * time.Millisecond)
	if allowed, _, _ := rl.Allow(ctx, "client-a"); !allowed {
		t.Error("bucket did not refill after waiting")
	}
}

// ---------------------------------------------------------------------------
// Middleware behaviour
// ---------------------------------------------------------------------------

func newRateLimitedRouter(rl ClientLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RateLimitMiddleware(rl), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimitMiddleware_AllowsAndSetsHeaders(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	router := newRateLimitedRouter(rl)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing")
	}
}

func TestRateLimitMiddleware_Returns429WhenExhausted(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	router := newRateLimitedRouter(rl)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", second.Header().Get("Retry-After"))
	}
}

// errorLimiter simulates a limiter backend outage.
type errorLimiter struct{}

func (errorLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, context.DeadlineExceeded
}
func (errorLimiter) Limit() int { return 60 }
func (errorLimiter) Stop()      {}

func TestRateLimitMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	router := newRateLimitedRouter(errorLimiter{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when limiter backend errors", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Key resolution
// ---------------------------------------------------------------------------

func TestGetRateLimitKey_PrefersUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("user_id", "user-9")

	if key := getRateLimitKey(c); key != "user:user-9" {
		t.Errorf("key = %q, want user:user-9", key)
	}
}

func TestGetRateLimitKey_FallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:12345"

	key := getRateLimitKey(c)
	if key != "ip:192.0.2.7" {
		t.Errorf("key = %q, want ip:192.0.2.7", key)
	}
}
