package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/observability"
	"resumepilot/internal/types"
)

func testAppConfig() *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:        "http://localhost:5000",
			ExtractTimeout: 5 * time.Second,
			EnhanceTimeout: 5 * time.Second,
		},
		Enhance: config.EnhanceConfig{Strategy: "local"},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: "0",
		},
		App: config.AppConfig{
			MaxUploadSize:  1 << 20,
			AllowPlainText: true,
		},
		Observability: config.ObservabilityConfig{
			HealthCheck: config.HealthCheckConfig{
				Timeout:              2 * time.Second,
				UpstreamCheckTimeout: time.Second,
			},
		},
	}
}

func newTestServer(t *testing.T, apiKeys []string) *Server {
	t.Helper()
	cfg := testAppConfig()
	srv, err := NewServer(cfg, ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: cfg.App.MaxUploadSize,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func disabledObservability(t *testing.T) *observability.ObservabilityManager {
	t.Helper()
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager: %v", err)
	}
	return om
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, []string{"secret-key-123456"})
	handler := srv.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/extract", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid header key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract", nil)
		req.Header.Set("X-API-Key", "secret-key-123456")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract", nil)
		req.Header.Set("Authorization", "Bearer secret-key-123456")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("no keys configured skips auth", func(t *testing.T) {
		open := newTestServer(t, nil)
		openHandler := open.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		rec := httptest.NewRecorder()
		openHandler(rec, httptest.NewRequest(http.MethodPost, "/extract", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["strategy"] != "local" {
		t.Errorf("strategy = %v", body["strategy"])
	}
	if _, ok := body["circuit_breakers"]; !ok {
		t.Error("expected circuit_breakers in health response")
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.statsHandler(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid stats body: %v", err)
	}
	if body["enhance_strategy"] != "local" {
		t.Errorf("enhance_strategy = %v", body["enhance_strategy"])
	}
}

func TestEnhanceHandlerLocalStrategy(t *testing.T) {
	srv := newTestServer(t, nil)
	om := disabledObservability(t)
	handler := srv.createEnhanceHandler(om)

	payload := map[string]any{
		"resumeJson": map[string]any{
			"full_name": "Jane Doe",
			"skills":    "Go, Kubernetes",
		},
		"jobDescription": "Looking for a senior golang engineer with kubernetes and postgresql experience.",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/enhance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.EnhancementResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid enhancement body: %v", err)
	}
	if result.Analysis.MatchScore < 60 || result.Analysis.MatchScore > 95 {
		t.Errorf("local match score out of range: %d", result.Analysis.MatchScore)
	}
	if result.Analysis.Strengths == nil || result.Analysis.Gaps == nil {
		t.Error("analysis slices must never be nil")
	}
	if result.Metadata.ModelType != "local" {
		t.Errorf("expected model_type 'local' in the response metadata, got %q", result.Metadata.ModelType)
	}
}

func TestEnhanceHandlerValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	om := disabledObservability(t)
	handler := srv.createEnhanceHandler(om)

	tests := []struct {
		name string
		body string
	}{
		{"missing resume", `{"jobDescription": "a long enough job description for the validation threshold"}`},
		{"missing job description", `{"resumeJson": {"full_name": "Jane"}}`},
		{"not json", `this is not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/enhance", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestEnhanceHandlerShortJobDescription(t *testing.T) {
	srv := newTestServer(t, nil)
	om := disabledObservability(t)
	handler := srv.createEnhanceHandler(om)

	body := `{"resumeJson": {"full_name": "Jane"}, "jobDescription": "too short"}`
	req := httptest.NewRequest(http.MethodPost, "/enhance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp.Code != errors.ErrCodeJobDescriptionTooShort {
		t.Errorf("expected JOB_DESCRIPTION_TOO_SHORT, got %q", resp.Code)
	}
}

func TestJobSearchHandlerValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	om := disabledObservability(t)
	handler := srv.createJobSearchHandler(om)

	body := `{"jobProfile": "", "experience": "Fresher", "location": "Austin, TX"}`
	req := httptest.NewRequest(http.MethodPost, "/jobs/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(60, time.Minute, 2, nil)
	defer limiter.Close()

	if !limiter.Allow("ip:1.2.3.4") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("ip:1.2.3.4") {
		t.Error("burst capacity should allow a second request")
	}
	if limiter.Allow("ip:1.2.3.4") {
		t.Error("third immediate request should be rejected")
	}
	if !limiter.Allow("ip:5.6.7.8") {
		t.Error("a different key must have its own bucket")
	}

	stats := limiter.GetStats()
	if stats["active_limiters"].(int) != 2 {
		t.Errorf("active_limiters = %v", stats["active_limiters"])
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(60, time.Minute, 2, nil)
	defer limiter.Close()

	limiter.Allow("ip:1.2.3.4")
	limiter.Allow("ip:5.6.7.8")

	// Age one client past the eviction window and sweep
	limiter.mu.Lock()
	limiter.lastSeen["ip:1.2.3.4"] = time.Now().Add(-2 * time.Minute)
	limiter.mu.Unlock()
	limiter.evictIdle()

	stats := limiter.GetStats()
	if stats["active_limiters"].(int) != 1 {
		t.Errorf("expected the idle bucket to be evicted, active_limiters = %v", stats["active_limiters"])
	}
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("X-API-Key", "abc")
	req.RemoteAddr = "10.0.0.1:5555"

	if key := getRateLimitKey(req, true, true); key != "api:abc" {
		t.Errorf("expected api key precedence, got %q", key)
	}
	if key := getRateLimitKey(req, false, true); key != "ip:10.0.0.1" {
		t.Errorf("expected ip key, got %q", key)
	}
	if key := getRateLimitKey(req, false, false); key != "" {
		t.Errorf("expected empty key, got %q", key)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	if ip := getClientIP(req); ip != "10.0.0.1" {
		t.Errorf("RemoteAddr ip = %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := getClientIP(req); ip != "203.0.113.9" {
		t.Errorf("X-Forwarded-For ip = %q", ip)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.7")
	if ip := getClientIP(req); ip != "198.51.100.7" {
		t.Errorf("X-Real-IP ip = %q", ip)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("short key mask = %q", got)
	}
	if got := maskAPIKey("abcdefghijkl"); got != "abcdefgh****" {
		t.Errorf("long key mask = %q", got)
	}
}

func TestStatusForAppError(t *testing.T) {
	tests := []struct {
		err  *errors.AppError
		want int
	}{
		{errors.NewNetworkError(errors.ErrCodeTimeout, "timed out", nil), http.StatusGatewayTimeout},
		{errors.NewNetworkError(errors.ErrCodeNetworkUnreachable, "unreachable", nil), http.StatusBadGateway},
		{errors.NewConfigError(errors.ErrCodeMissingCredentials, "no key", nil), http.StatusServiceUnavailable},
		{errors.NewValidationError(errors.ErrCodeInvalidFile, "bad file", nil), http.StatusBadRequest},
		{errors.NewUpstreamError(errors.ErrCodeUpstreamError, "boom", nil), http.StatusBadGateway},
		{errors.NewInternalError(errors.ErrCodeInvalidRequest, "oops", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForAppError(tt.err); got != tt.want {
			t.Errorf("statusForAppError(%s) = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}
