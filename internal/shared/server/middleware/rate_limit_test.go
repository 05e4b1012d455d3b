package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-roles/internal/shared/telemetry"
)

func TestRateLimitAnalyzeGroupOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	defer telemetry.SetOutput(io.Discard)()

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return "ANALYZE"
			}
			return ""
		},
		Rules: map[string]RateLimitRule{
			"ANALYZE": {Rate: 1, Burst: 2},
		},
	}))
	r.POST("/analyze_batch", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/download_csv", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/analyze_batch", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("analyze request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/analyze_batch", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body.Error.Code != "rate_limited" || body.Error.Details["retryAfterMs"] != 1000 {
		t.Fatalf("unexpected 429 body: %+v", body)
	}

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/download_csv", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("unlimited request %d expected 200, got %d", i+1, resp.Code)
		}
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 2, Burst: 1}

	if ok, _ := limiter.Allow("ip|ANALYZE", rule); !ok {
		t.Fatalf("first request should pass")
	}
	ok, wait := limiter.Allow("ip|ANALYZE", rule)
	if ok {
		t.Fatalf("second request should be limited")
	}
	if wait != 500*time.Millisecond {
		t.Fatalf("expected 500ms wait, got %s", wait)
	}

	now = now.Add(500 * time.Millisecond)
	if ok, _ := limiter.Allow("ip|ANALYZE", rule); !ok {
		t.Fatalf("request after refill should pass")
	}
}

func TestRateLimiterPrunesRefilledBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	fast := RateLimitRule{Rate: 1, Burst: 2}
	slow := RateLimitRule{Rate: 0.01, Burst: 2}

	limiter.Allow("10.0.0.1|ANALYZE", fast)
	limiter.Allow("10.0.0.2|ANALYZE", fast)
	limiter.Allow("10.0.0.3|SLOW", slow)
	if got := limiter.Len(); got != 3 {
		t.Fatalf("expected 3 buckets, got %d", got)
	}

	now = now.Add(90 * time.Second)
	if ok, _ := limiter.Allow("10.0.0.4|ANALYZE", fast); !ok {
		t.Fatalf("expected new client to be allowed")
	}
	// The two fast buckets refilled after 2s; the slow one needs 200s.
	if got := limiter.Len(); got != 2 {
		t.Fatalf("expected 2 buckets after prune, got %d", got)
	}

	now = now.Add(10 * time.Second)
	limiter.Allow("10.0.0.5|ANALYZE", fast)
	if got := limiter.Len(); got != 3 {
		t.Fatalf("expected no prune within the interval, got %d buckets", got)
	}
}

func TestRateLimiterPrunedClientKeepsFullBurst(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("ip|ANALYZE", rule); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if ok, _ := limiter.Allow("ip|ANALYZE", rule); ok {
		t.Fatalf("third request should be limited")
	}

	now = now.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("ip|ANALYZE", rule); !ok {
			t.Fatalf("request %d after idle period should pass", i+1)
		}
	}
}
