package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resume-roles/internal/analysis"
	"resume-roles/internal/results"
	"resume-roles/internal/services/health"
	"resume-roles/internal/shared/config"
	"resume-roles/internal/shared/server/middleware"
	local "resume-roles/internal/shared/storage/object/local"
	"resume-roles/internal/shared/telemetry"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	return string(data), nil
}

type stubClassifier struct{}

func (stubClassifier) Predict(ctx context.Context, text string) (string, error) {
	return "Engineer", nil
}

func newTestRouter(t *testing.T, hs *health.Service) http.Handler {
	t.Helper()
	svc := &analysis.Service{
		Store:      local.New(t.TempDir()),
		Extractor:  stubExtractor{},
		Classifier: stubClassifier{},
		Results:    results.NewMemoryRepo(),
	}
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config: config.Config{
			CORSAllowOrigin: []string{"http://localhost:5173"},
			RateLimitRPS:    1,
			RateLimitBurst:  1,
		},
		AnalysisHandler: analysis.NewHandler(svc, 0),
		Health:          hs,
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "batch_analyses_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthUnavailable(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	hs := health.NewService()
	hs.Register("database", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	newTestRouter(t, hs).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAnalyzeRoutesAreRateLimited(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	router := newTestRouter(t, nil)

	post := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze_batch", strings.NewReader(""))
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := post(); code != http.StatusBadRequest {
		t.Fatalf("first request expected 400 from validation, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", code)
	}

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download_csv", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("download %d expected 200, got %d", i, rec.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
