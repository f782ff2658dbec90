// Package extract calls the external extraction service that turns an
// uploaded resume document into raw structured JSON, and normalizes the
// response into a ResumeRecord.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"resumepilot/internal/breaker"
	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/resume"
	"resumepilot/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options overrides per-call extraction parameters. Zero values fall back
// to the configured defaults.
type Options struct {
	FileID    string
	ModelType string
	Model     string
}

// Client invokes the extraction endpoint with pre-flight validation,
// timeout-bounded calls and circuit breaker protection
type Client struct {
	cfg        config.UpstreamConfig
	mimeTypes  []string
	httpClient *http.Client
	breaker    *breaker.Breaker[*types.ExtractionResult]
	logger     *errors.Logger
	tracer     trace.Tracer
}

// NewClient creates an extraction client from the application configuration
func NewClient(cfg *config.Config, logger *errors.Logger) *Client {
	return &Client{
		cfg:       cfg.Upstream,
		mimeTypes: cfg.ResumeMIMETypes(),
		// Timeouts are applied per call via context so a single client can
		// serve both CLI and server paths.
		httpClient: &http.Client{},
		breaker:    breaker.New[*types.ExtractionResult]("upstream-extract", cfg.Upstream.CircuitBreaker, logger),
		logger:     logger,
		tracer:     otel.Tracer("resumepilot/extract"),
	}
}

// Extract uploads the file to the extraction service and returns the
// normalized result. Credential and file validation run before any network
// I/O. Failures are classified so callers can branch: TIMEOUT,
// NETWORK_UNREACHABLE, UPSTREAM_ERROR, MALFORMED_RESPONSE. No automatic
// retry.
func (c *Client) Extract(ctx context.Context, file common.Upload, opts Options) (*types.ExtractionResult, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials,
			"Upstream API key is not configured. Set RESUMEPILOT_UPSTREAM_APIKEY or configure Vault secret loading", nil)
	}
	if err := common.ValidateResumeFileTypes(file.MIMEType, int64(len(file.Data)), c.mimeTypes); err != nil {
		return nil, err
	}

	fileID := opts.FileID
	if fileID == "" {
		fileID = uuid.NewString()
	}
	modelType := opts.ModelType
	if modelType == "" {
		modelType = c.cfg.ModelType
	}
	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ExtractTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "extract.Extract",
		trace.WithAttributes(
			attribute.String("file_id", fileID),
			attribute.String("mime_type", file.MIMEType),
			attribute.Int("file_size", len(file.Data)),
			attribute.String("model_type", modelType),
			attribute.String("model", model),
		))
	defer span.End()

	result, err := c.breaker.Execute(func() (*types.ExtractionResult, error) {
		return c.doExtract(ctx, file, fileID, modelType, model)
	})
	if err != nil {
		span.RecordError(err)
		if c.logger != nil {
			c.logger.LogError(err, "Extraction failed", "file_id", fileID)
		}
		return failureResult(fileID, err), err
	}
	return result, nil
}

// BreakerStats exposes circuit breaker state for health reporting
func (c *Client) BreakerStats() map[string]any {
	return c.breaker.Stats()
}

// IsHealthy reports whether the extraction breaker is closed
func (c *Client) IsHealthy() bool {
	return c.breaker.IsHealthy()
}

func (c *Client) doExtract(ctx context.Context, file common.Upload, fileID, modelType, model string) (*types.ExtractionResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build extraction request", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build extraction request", err)
	}

	fields := map[string]string{
		"api_key":    c.cfg.APIKey,
		"model_type": modelType,
		"model":      model,
		"file_id":    fileID,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
				"Failed to build extraction request", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build extraction request", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/api/extract-resume-json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build extraction request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-ID", fileID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ClassifyTransportError("Extraction", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ClassifyTransportError("Extraction", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.UpstreamHTTPError(resp.Status, resp.StatusCode, payload)
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Extraction service returned a response that could not be parsed", err).
			WithContext("file_id", fileID)
	}

	resumePayload, envelope := unwrapEnvelope(raw)
	if envelope != nil {
		if ok, present := envelope["success"].(bool); present && !ok {
			message := envelopeMessage(envelope)
			if message == "" {
				message = "Extraction service reported a failure"
			}
			return nil, errors.NewUpstreamError(errors.ErrCodeUpstreamError, message, nil).
				WithContext("file_id", fileID)
		}
	}

	record, err := resume.Normalize(resumePayload)
	if err != nil {
		return nil, err
	}

	result := &types.ExtractionResult{
		Success: record != nil,
		Resume:  record,
		RawJSON: resumePayload,
		FileID:  fileID,
	}
	if envelope != nil {
		if n, ok := envelope["extracted_text_length"].(float64); ok {
			result.ExtractedTextLength = int(n)
		}
	}
	if record == nil {
		result.ErrorKind = "unusable_response"
		result.Message = "Extraction service returned an unusable response"
	}
	return result, nil
}

// unwrapEnvelope separates the service's response envelope
// {success, resume_json, extracted_text_length, message?, error?} from the
// resume payload inside it. A body without envelope markers is treated as
// the resume object itself for tolerance of older deployments.
func unwrapEnvelope(raw any) (payload any, envelope map[string]any) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw, nil
	}
	if inner, ok := obj["resume_json"]; ok {
		return inner, obj
	}
	if _, ok := obj["success"]; ok {
		// Envelope without a resume payload; nothing to normalize.
		return nil, obj
	}
	return raw, nil
}

// envelopeMessage pulls the human-readable failure text out of an envelope
func envelopeMessage(envelope map[string]any) string {
	if msg, ok := envelope["message"].(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	if msg, ok := envelope["error"].(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return ""
}

// failureResult converts a classified error into the failure form of
// ExtractionResult so HTTP handlers can serialize it directly
func failureResult(fileID string, err error) *types.ExtractionResult {
	result := &types.ExtractionResult{
		Success: false,
		FileID:  fileID,
		Message: "Extraction failed",
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		result.ErrorKind = strings.ToLower(appErr.Code)
		result.Message = appErr.Message
	}
	return result
}
