package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"resumepilot/internal/breaker"
	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/types"
)

// upstreamStrategy sends enhancement requests to the external AI service
type upstreamStrategy struct {
	cfg        config.UpstreamConfig
	httpClient *http.Client
	breaker    *breaker.Breaker[*types.EnhancementResult]
	logger     *errors.Logger
}

func newUpstreamStrategy(cfg config.UpstreamConfig, logger *errors.Logger) *upstreamStrategy {
	return &upstreamStrategy{
		cfg:        cfg,
		httpClient: &http.Client{},
		breaker:    breaker.New[*types.EnhancementResult]("upstream-enhance", cfg.CircuitBreaker, logger),
		logger:     logger,
	}
}

func (s *upstreamStrategy) name() string { return "upstream" }

func (s *upstreamStrategy) hasCredentials() bool {
	return strings.TrimSpace(s.cfg.APIKey) != ""
}

// enhanceRequest is the JSON body for the upstream enhancement endpoint
type enhanceRequest struct {
	ResumeJSON     json.RawMessage `json:"resume_json"`
	JobDescription string          `json:"job_description"`
	APIKey         string          `json:"api_key"`
	ModelType      string          `json:"model_type"`
	Model          string          `json:"model"`
	FileID         string          `json:"file_id,omitempty"`
}

func (s *upstreamStrategy) enhance(ctx context.Context, resumeJSON []byte, jobDescription, fileID string) (*types.EnhancementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EnhanceTimeout)
	defer cancel()

	return s.breaker.Execute(func() (*types.EnhancementResult, error) {
		return s.doEnhance(ctx, resumeJSON, jobDescription, fileID)
	})
}

func (s *upstreamStrategy) doEnhance(ctx context.Context, resumeJSON []byte, jobDescription, fileID string) (*types.EnhancementResult, error) {
	body, err := json.Marshal(enhanceRequest{
		ResumeJSON:     resumeJSON,
		JobDescription: jobDescription,
		APIKey:         s.cfg.APIKey,
		ModelType:      s.cfg.ModelType,
		Model:          s.cfg.Model,
		FileID:         fileID,
	})
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build enhancement request", err)
	}

	url := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/api/ai-enhance"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build enhancement request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if fileID != "" {
		req.Header.Set("X-Request-ID", fileID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, common.ClassifyTransportError("Enhancement", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ClassifyTransportError("Enhancement", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.UpstreamHTTPError(resp.Status, resp.StatusCode, payload)
	}

	return parseEnhancementPayload(payload)
}

// parseEnhancementPayload accepts either a bare AnalysisRecord or the full
// envelope {analysis, enhancements, metadata, file_id}, matching the shapes
// the upstream service emits. Rewritten resume material and model metadata
// travel alongside the analysis when the service sends them.
func parseEnhancementPayload(payload []byte) (*types.EnhancementResult, error) {
	var envelope struct {
		Analysis     *types.AnalysisRecord      `json:"analysis"`
		Enhancements *types.Enhancements        `json:"enhancements"`
		Metadata     *types.EnhancementMetadata `json:"metadata"`
		FileID       string                     `json:"file_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Enhancement service returned a response that could not be parsed", err)
	}
	if envelope.Analysis != nil {
		result := &types.EnhancementResult{
			Analysis: *envelope.Analysis,
			FileID:   envelope.FileID,
		}
		if envelope.Enhancements != nil {
			result.Enhancements = *envelope.Enhancements
		}
		if envelope.Metadata != nil {
			result.Metadata = *envelope.Metadata
		}
		return result, nil
	}

	var analysis types.AnalysisRecord
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Enhancement service returned a response that could not be parsed", err)
	}
	return &types.EnhancementResult{Analysis: analysis}, nil
}
