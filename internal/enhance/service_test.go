package enhance

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resumepilot/internal/config"
	"resumepilot/internal/errors"

	"google.golang.org/api/googleapi"
)

const validJD = "We are looking for a backend engineer with golang and postgresql experience in distributed systems."

func upstreamServiceConfig(baseURL string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:        baseURL,
			APIKey:         "test-key",
			ModelType:      "OpenAI",
			Model:          "gpt-4o",
			ExtractTimeout: 5 * time.Second,
			EnhanceTimeout: 5 * time.Second,
		},
		Enhance: config.EnhanceConfig{Strategy: "upstream"},
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestEnhancePreFlightShortCircuit(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"match_score": 80}`))
	}))
	defer server.Close()

	t.Run("job description too short", func(t *testing.T) {
		svc, err := NewService(upstreamServiceConfig(server.URL), nil)
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}

		_, err = svc.Enhance(context.Background(), sampleRecord("golang"), "too short", Options{})
		if code := appErrCode(t, err); code != errors.ErrCodeJobDescriptionTooShort {
			t.Errorf("expected JOB_DESCRIPTION_TOO_SHORT, got %s", code)
		}
	})

	t.Run("whitespace does not count toward the minimum", func(t *testing.T) {
		svc, _ := NewService(upstreamServiceConfig(server.URL), nil)

		padded := "   short" + strings.Repeat(" ", 60)
		_, err := svc.Enhance(context.Background(), sampleRecord("golang"), padded, Options{})
		if code := appErrCode(t, err); code != errors.ErrCodeJobDescriptionTooShort {
			t.Errorf("expected JOB_DESCRIPTION_TOO_SHORT, got %s", code)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := upstreamServiceConfig(server.URL)
		cfg.Upstream.APIKey = ""
		svc, _ := NewService(cfg, nil)

		_, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{})
		if code := appErrCode(t, err); code != errors.ErrCodeMissingCredentials {
			t.Errorf("expected MISSING_CREDENTIALS, got %s", code)
		}
	})

	if got := calls.Load(); got != 0 {
		t.Errorf("pre-flight failures must not reach the network, saw %d calls", got)
	}
}

func TestEnhanceUpstreamSuccess(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "bare analysis",
			body: `{"match_score": 82, "strengths": ["solid golang background"]}`,
		},
		{
			name: "enveloped analysis",
			body: `{"analysis": {"match_score": 82, "strengths": ["solid golang background"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/ai-enhance" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("unexpected content type %s", ct)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewService(upstreamServiceConfig(server.URL), nil)
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}

			result, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{FileID: "f1"})
			if err != nil {
				t.Fatalf("Enhance: %v", err)
			}
			if result.Analysis.MatchScore != 82 {
				t.Errorf("expected match_score 82, got %d", result.Analysis.MatchScore)
			}
			// Total-default policy applies to remote results too
			if result.Analysis.Gaps == nil || result.Analysis.Suggestions == nil {
				t.Error("expected nil slices to be defaulted")
			}
			if result.Analysis.KeywordAnalysis.PresentKeywords == nil {
				t.Error("expected keyword lists to be defaulted")
			}
			if result.FileID != "f1" {
				t.Errorf("expected file id to carry through, got %q", result.FileID)
			}
			if result.Metadata.ModelType != "upstream" {
				t.Errorf("expected model_type stamped as 'upstream', got %q", result.Metadata.ModelType)
			}
		})
	}
}

func TestEnhanceClampsRemoteScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"match_score": 250, "keyword_analysis": {"keyword_density_score": -5}}`))
	}))
	defer server.Close()

	svc, _ := NewService(upstreamServiceConfig(server.URL), nil)
	result, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if result.Analysis.MatchScore != 100 {
		t.Errorf("expected match_score clamped to 100, got %d", result.Analysis.MatchScore)
	}
	if result.Analysis.KeywordAnalysis.KeywordDensityScore != 0 {
		t.Errorf("expected density clamped to 0, got %d", result.Analysis.KeywordAnalysis.KeywordDensityScore)
	}
}

func TestEnhanceUpstreamFullEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"analysis": {"match_score": 88, "strengths": ["strong platform background"]},
			"enhancements": {
				"enhanced_summary": "Platform engineer with five years of production Go.",
				"enhanced_skills": ["golang", "kubernetes"],
				"enhanced_experience_bullets": ["Cut deploy times by 40% with a new pipeline"],
				"cover_letter_outline": "Opening: why this team."
			},
			"metadata": {"model_used": "gpt-4o", "model_type": "OpenAI", "timestamp": "2026-08-28T10:00:00Z", "resume_sections_analyzed": 4},
			"file_id": "f-envelope"
		}`))
	}))
	defer server.Close()

	svc, err := NewService(upstreamServiceConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if result.Analysis.MatchScore != 88 {
		t.Errorf("expected match_score 88, got %d", result.Analysis.MatchScore)
	}
	if result.Enhancements.EnhancedSummary != "Platform engineer with five years of production Go." {
		t.Errorf("enhanced summary not carried through: %q", result.Enhancements.EnhancedSummary)
	}
	if len(result.Enhancements.EnhancedSkills) != 2 {
		t.Errorf("expected 2 enhanced skills, got %v", result.Enhancements.EnhancedSkills)
	}
	if len(result.Enhancements.EnhancedExperienceBullets) != 1 {
		t.Errorf("expected 1 enhanced bullet, got %v", result.Enhancements.EnhancedExperienceBullets)
	}
	if result.Enhancements.CoverLetterOutline == "" {
		t.Error("cover letter outline not carried through")
	}
	if result.Metadata.ModelUsed != "gpt-4o" || result.Metadata.ModelType != "OpenAI" {
		t.Errorf("metadata not carried through: %+v", result.Metadata)
	}
	if result.Metadata.Timestamp != "2026-08-28T10:00:00Z" {
		t.Errorf("service timestamp must win over a local stamp, got %q", result.Metadata.Timestamp)
	}
	if result.FileID != "f-envelope" {
		t.Errorf("expected file id from the envelope, got %q", result.FileID)
	}
}

func TestEnhanceFallbackToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "model backend unavailable"}`))
	}))
	defer server.Close()

	svc, _ := NewService(upstreamServiceConfig(server.URL), nil)

	var fallbackStrategy string
	svc.OnFallback = func(strategy string, cause error) {
		fallbackStrategy = strategy
	}

	result, err := svc.Enhance(context.Background(), sampleRecord("golang", "postgresql"), validJD, Options{})
	if err != nil {
		t.Fatalf("fallback should swallow the remote failure, got %v", err)
	}
	if fallbackStrategy != "upstream" {
		t.Errorf("expected fallback hook with strategy 'upstream', got %q", fallbackStrategy)
	}
	// The local scorer bounds apply
	if result.Analysis.MatchScore < 60 || result.Analysis.MatchScore > 95 {
		t.Errorf("fallback score %d outside [60,95]", result.Analysis.MatchScore)
	}
	// The metadata names the path that actually produced the analysis
	if result.Metadata.ModelType != "local" {
		t.Errorf("expected model_type 'local' after fallback, got %q", result.Metadata.ModelType)
	}
}

func TestEnhanceFallbackNeedsUsableRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc, _ := NewService(upstreamServiceConfig(server.URL), nil)

	_, err := svc.Enhance(context.Background(), nil, validJD, Options{})
	if code := appErrCode(t, err); code != errors.ErrCodeEnhancementFailed {
		t.Errorf("expected ENHANCEMENT_FAILED, got %s", code)
	}
}

func TestEnhanceLocalStrategy(t *testing.T) {
	cfg := &config.Config{Enhance: config.EnhanceConfig{Strategy: "local"}}
	svc, err := NewService(cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Enhance(context.Background(), sampleRecord("golang", "postgresql"), validJD, Options{})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if result.Analysis.MatchScore < 60 || result.Analysis.MatchScore > 95 {
		t.Errorf("local score %d outside [60,95]", result.Analysis.MatchScore)
	}
	if result.Metadata.ModelType != "local" {
		t.Errorf("expected model_type 'local', got %q", result.Metadata.ModelType)
	}
	if result.Metadata.ResumeSectionsAnalyzed == 0 {
		t.Error("expected analyzed section count to be recorded")
	}
	if result.Metadata.Timestamp == "" {
		t.Error("expected a timestamp on the local result")
	}

	t.Run("nil record fails terminally", func(t *testing.T) {
		_, err := svc.Enhance(context.Background(), nil, validJD, Options{})
		if code := appErrCode(t, err); code != errors.ErrCodeEnhancementFailed {
			t.Errorf("expected ENHANCEMENT_FAILED, got %s", code)
		}
	})
}

func TestEnhanceStrategyOverride(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"match_score": 80}`))
	}))
	defer server.Close()

	svc, _ := NewService(upstreamServiceConfig(server.URL), nil)

	t.Run("override to local skips the network", func(t *testing.T) {
		_, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{Strategy: "local"})
		if err != nil {
			t.Fatalf("Enhance: %v", err)
		}
		if calls.Load() != 0 {
			t.Error("local override must not call the upstream service")
		}
	})

	t.Run("override to an unavailable remote strategy is rejected", func(t *testing.T) {
		_, err := svc.Enhance(context.Background(), sampleRecord("golang"), validJD, Options{Strategy: "gemini"})
		if code := appErrCode(t, err); code != errors.ErrCodeInvalidRequest {
			t.Errorf("expected INVALID_REQUEST, got %s", code)
		}
	})
}

func TestEnhanceUnknownStrategy(t *testing.T) {
	cfg := &config.Config{Enhance: config.EnhanceConfig{Strategy: "psychic"}}
	_, err := NewService(cfg, nil)
	if code := appErrCode(t, err); code != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", code)
	}
}

func TestParseEnhancementPayloadMalformed(t *testing.T) {
	_, err := parseEnhancementPayload([]byte("not json {"))
	if code := appErrCode(t, err); code != errors.ErrCodeMalformedResponse {
		t.Errorf("expected MALFORMED_RESPONSE, got %s", code)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generic error", stderrors.New("boom"), false},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, true},
		{"bad gateway", &googleapi.Error{Code: http.StatusBadGateway}, true},
		{"unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"gateway timeout", &googleapi.Error{Code: http.StatusGatewayTimeout}, true},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false},
		{"network timeout", &timeoutError{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
