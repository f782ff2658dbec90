package extract

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
)

func testConfig(baseURL string, timeout time.Duration) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:        baseURL,
			APIKey:         "test-key",
			ModelType:      "OpenAI",
			Model:          "gpt-4o",
			ExtractTimeout: timeout,
			EnhanceTimeout: timeout,
		},
		App: config.AppConfig{AllowPlainText: true},
	}
}

func pdfUpload() common.Upload {
	return common.Upload{
		Filename: "resume.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("%PDF-1.4 fake resume content"),
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestExtractSuccess(t *testing.T) {
	var gotFields map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotFields = map[string]string{
			"api_key":    r.FormValue("api_key"),
			"model_type": r.FormValue("model_type"),
			"model":      r.FormValue("model"),
			"file_id":    r.FormValue("file_id"),
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			_ = file.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"resume_json": {
				"full_name": "Jane Doe",
				"email": "jane@example.com",
				"skills": "Go, SQL"
			},
			"extracted_text_length": 1234
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 5*time.Second), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{FileID: "fixed-id"})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful extraction")
	}
	if result.Resume == nil {
		t.Fatal("expected a normalized resume record")
	}
	if result.Resume.Personal.Name != "Jane Doe" {
		t.Errorf("expected normalized name 'Jane Doe', got %q", result.Resume.Personal.Name)
	}
	if len(result.Resume.Skills) != 2 {
		t.Errorf("expected 2 skills, got %v", result.Resume.Skills)
	}
	if result.ExtractedTextLength != 1234 {
		t.Errorf("expected extracted_text_length 1234, got %d", result.ExtractedTextLength)
	}
	if result.FileID != "fixed-id" {
		t.Errorf("expected file_id 'fixed-id', got %q", result.FileID)
	}

	if gotFields["api_key"] != "test-key" {
		t.Errorf("expected api_key form field, got %q", gotFields["api_key"])
	}
	if gotFields["model_type"] != "OpenAI" || gotFields["model"] != "gpt-4o" {
		t.Errorf("expected default model fields, got %v", gotFields)
	}
	if gotFields["file_id"] != "fixed-id" {
		t.Errorf("expected file_id form field, got %q", gotFields["file_id"])
	}
}

func TestExtractBareObjectResponse(t *testing.T) {
	// Older deployments return the resume object without the envelope.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"full_name": "Jane Doe", "skills": ["Go"]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 5*time.Second), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !result.Success || result.Resume == nil {
		t.Fatal("expected a successful extraction from a bare resume object")
	}
	if result.Resume.Personal.Name != "Jane Doe" {
		t.Errorf("expected normalized name 'Jane Doe', got %q", result.Resume.Personal.Name)
	}
}

func TestExtractEnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "text extraction produced no content"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 5*time.Second), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{})

	if code := appErrorCode(t, err); code != errors.ErrCodeUpstreamError {
		t.Fatalf("expected UPSTREAM_ERROR, got %s", code)
	}
	var appErr *errors.AppError
	stderrors.As(err, &appErr)
	if !strings.Contains(appErr.Message, "no content") {
		t.Errorf("expected the envelope error text, got %q", appErr.Message)
	}
	if result == nil || result.Success {
		t.Error("expected a failure-shaped result alongside the error")
	}
}

func TestExtractEnvelopeDoesNotNormalizeAsResume(t *testing.T) {
	// The envelope keys must never leak into normalization: a successful
	// envelope with a string resume payload still yields the parsed record,
	// and an envelope without resume_json is unusable rather than an empty
	// record reported as success.
	t.Run("string resume payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true, "resume_json": "{\"full_name\": \"Jane Doe\"}"}`))
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL, 5*time.Second), nil)
		result, err := client.Extract(context.Background(), pdfUpload(), Options{})
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result.Resume == nil || result.Resume.Personal.Name != "Jane Doe" {
			t.Fatalf("expected the nested resume payload to be normalized, got %+v", result.Resume)
		}
	})

	t.Run("envelope without resume payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true, "extracted_text_length": 42}`))
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL, 5*time.Second), nil)
		result, err := client.Extract(context.Background(), pdfUpload(), Options{})
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}
		if result.Success {
			t.Error("an envelope without resume_json must not report success")
		}
		if result.ErrorKind != "unusable_response" {
			t.Errorf("expected error_kind 'unusable_response', got %q", result.ErrorKind)
		}
	})
}

func TestExtractGeneratesFileID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "x"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 5*time.Second), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result.FileID == "" {
		t.Error("expected a generated file_id when none is supplied")
	}
}

func TestExtractPreFlightShortCircuit(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testConfig(server.URL, 5*time.Second)
		cfg.Upstream.APIKey = "   "
		client := NewClient(cfg, nil)

		_, err := client.Extract(context.Background(), pdfUpload(), Options{})
		if code := appErrorCode(t, err); code != errors.ErrCodeMissingCredentials {
			t.Errorf("expected MISSING_CREDENTIALS, got %s", code)
		}
	})

	t.Run("invalid mime type", func(t *testing.T) {
		client := NewClient(testConfig(server.URL, 5*time.Second), nil)
		upload := pdfUpload()
		upload.MIMEType = "image/png"

		_, err := client.Extract(context.Background(), upload, Options{})
		if code := appErrorCode(t, err); code != errors.ErrCodeInvalidFile {
			t.Errorf("expected INVALID_FILE, got %s", code)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		client := NewClient(testConfig(server.URL, 5*time.Second), nil)
		upload := pdfUpload()
		upload.Data = nil

		_, err := client.Extract(context.Background(), upload, Options{})
		if code := appErrorCode(t, err); code != errors.ErrCodeInvalidFile {
			t.Errorf("expected INVALID_FILE, got %s", code)
		}
	})

	if got := calls.Load(); got != 0 {
		t.Errorf("pre-flight failures must not reach the network, saw %d calls", got)
	}
}

func TestExtractUpstreamErrorMessage(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantInMsg  string
	}{
		{
			name:       "message field",
			statusCode: http.StatusBadRequest,
			body:       `{"message": "resume file is password protected"}`,
			wantInMsg:  "password protected",
		},
		{
			name:       "error field",
			statusCode: http.StatusInternalServerError,
			body:       `{"error": "model backend exploded"}`,
			wantInMsg:  "model backend exploded",
		},
		{
			name:       "no body falls back to status line",
			statusCode: http.StatusBadGateway,
			body:       "",
			wantInMsg:  "502",
		},
		{
			name:       "auth hint",
			statusCode: http.StatusUnauthorized,
			body:       `{"error": "invalid api key"}`,
			wantInMsg:  "Check that the configured API key is valid",
		},
		{
			name:       "rate limit hint",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error": "too many requests"}`,
			wantInMsg:  "rate limiting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL, 5*time.Second), nil)
			result, err := client.Extract(context.Background(), pdfUpload(), Options{FileID: "f1"})

			if code := appErrorCode(t, err); code != errors.ErrCodeUpstreamError {
				t.Fatalf("expected UPSTREAM_ERROR, got %s", code)
			}
			var appErr *errors.AppError
			stderrors.As(err, &appErr)
			if !strings.Contains(appErr.Message, tt.wantInMsg) {
				t.Errorf("expected message containing %q, got %q", tt.wantInMsg, appErr.Message)
			}
			if result == nil || result.Success {
				t.Error("expected a failure-shaped result alongside the error")
			}
		})
	}
}

func TestExtractTimeoutNeverSucceeds(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"name": "late"}`))
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(testConfig(server.URL, 50*time.Millisecond), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{})

	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if code := appErrorCode(t, err); code != errors.ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", code)
	}
	if result != nil && result.Success {
		t.Error("a timed-out extraction must never report success")
	}
}

func TestExtractNetworkUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the port refuses connections

	client := NewClient(testConfig(server.URL, time.Second), nil)
	_, err := client.Extract(context.Background(), pdfUpload(), Options{})

	if code := appErrorCode(t, err); code != errors.ErrCodeNetworkUnreachable {
		t.Errorf("expected NETWORK_UNREACHABLE, got %s", code)
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "this is not json {")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, time.Second), nil)
	_, err := client.Extract(context.Background(), pdfUpload(), Options{})

	if code := appErrorCode(t, err); code != errors.ErrCodeMalformedResponse {
		t.Errorf("expected MALFORMED_RESPONSE, got %s", code)
	}
}

func TestExtractUnusableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[1, 2, 3]`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, time.Second), nil)
	result, err := client.Extract(context.Background(), pdfUpload(), Options{})
	if err != nil {
		t.Fatalf("unusable response should not be an error: %v", err)
	}
	if result.Success {
		t.Error("expected Success=false for a non-object response")
	}
	if result.ErrorKind != "unusable_response" {
		t.Errorf("expected error_kind 'unusable_response', got %q", result.ErrorKind)
	}
}
