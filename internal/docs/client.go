// Package docs is a thin client for the document-conversion backend that
// extracts resume text, produces an optimized resume and cover letter, and
// serves the generated files for download by opaque file id.
package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// fileIDPattern matches the trailing file id of a generated document URL
var fileIDPattern = regexp.MustCompile(`/(?:resume|cover-letter)/([^/]+)$`)

// FileIDFromURL extracts the opaque file id from a download URL. Returns
// an empty string when the URL does not look like a generated document link.
func FileIDFromURL(url string) string {
	m := fileIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Client talks to the conversion backend
type Client struct {
	cfg        config.DocsConfig
	mimeTypes  []string
	httpClient *http.Client
	logger     *errors.Logger
	tracer     trace.Tracer
}

// NewClient creates a conversion backend client
func NewClient(cfg *config.Config, logger *errors.Logger) *Client {
	return &Client{
		cfg:        cfg.Docs,
		mimeTypes:  cfg.ResumeMIMETypes(),
		httpClient: &http.Client{},
		logger:     logger,
		tracer:     otel.Tracer("resumepilot/docs"),
	}
}

// Health reports whether the conversion backend is reachable and ready
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/health"), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == "healthy"
}

// optimizeResponse is the backend's wire shape for extract-and-optimize
type optimizeResponse struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Error         string          `json:"error"`
	ExtractedText string          `json:"extractedText"`
	Analysis      json.RawMessage `json:"analysis"`
}

type optimizeAnalysis struct {
	MatchScore             int      `json:"matchScore"`
	Strengths              []string `json:"strengths"`
	Gaps                   []string `json:"gaps"`
	Suggestions            []string `json:"suggestions"`
	OptimizedResumeURL     string   `json:"optimizedResumeUrl"`
	OptimizedCoverLetterURL string  `json:"optimizedCoverLetterUrl"`
	KeywordAnalysis        struct {
		CoverageScore   int      `json:"coverageScore"`
		CoveredKeywords []string `json:"coveredKeywords"`
		MissingKeywords []string `json:"missingKeywords"`
	} `json:"keywordAnalysis"`
}

// ExtractAndOptimize uploads the resume plus the job description and returns
// the extracted text, the analysis and the generated document URLs. The
// backend must pass a health check first, matching its contract.
func (c *Client) ExtractAndOptimize(ctx context.Context, file common.Upload, jobDescription string) (*types.OptimizeResult, error) {
	if err := common.ValidateResumeFileTypes(file.MIMEType, int64(len(file.Data)), c.mimeTypes); err != nil {
		return nil, err
	}
	if err := common.ValidateJobDescription(jobDescription); err != nil {
		return nil, err
	}
	if !c.Health(ctx) {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkUnreachable,
			"Document conversion backend is not available. Check that it is running", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "docs.ExtractAndOptimize",
		trace.WithAttributes(
			attribute.String("mime_type", file.MIMEType),
			attribute.Int("file_size", len(file.Data)),
		))
	defer span.End()

	result, err := c.doExtractAndOptimize(ctx, file, jobDescription)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (c *Client) doExtractAndOptimize(ctx context.Context, file common.Upload, jobDescription string) (*types.OptimizeResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build conversion request", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build conversion request", err)
	}
	if err := writer.WriteField("job_description", jobDescription); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build conversion request", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build conversion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/extract-and-optimize"), &body)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build conversion request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ClassifyTransportError("Document conversion", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ClassifyTransportError("Document conversion", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.UpstreamHTTPError(resp.Status, resp.StatusCode, payload)
	}

	var wire optimizeResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Conversion backend returned a response that could not be parsed", err)
	}
	if !wire.Success {
		message := wire.Error
		if message == "" {
			message = wire.Message
		}
		if message == "" {
			message = "Document conversion failed"
		}
		return nil, errors.NewUpstreamError(errors.ErrCodeUpstreamError, message, nil)
	}

	result := &types.OptimizeResult{
		ExtractedText: wire.ExtractedText,
	}
	if len(wire.Analysis) > 0 {
		var analysis optimizeAnalysis
		if err := json.Unmarshal(wire.Analysis, &analysis); err == nil {
			result.ResumeURL = analysis.OptimizedResumeURL
			result.CoverLetterURL = analysis.OptimizedCoverLetterURL
			result.FileID = FileIDFromURL(analysis.OptimizedResumeURL)
			result.Analysis = &types.AnalysisRecord{
				MatchScore:  analysis.MatchScore,
				Strengths:   orEmpty(analysis.Strengths),
				Gaps:        orEmpty(analysis.Gaps),
				Suggestions: orEmpty(analysis.Suggestions),
				KeywordAnalysis: types.KeywordAnalysis{
					PresentKeywords:     orEmpty(analysis.KeywordAnalysis.CoveredKeywords),
					MissingKeywords:     orEmpty(analysis.KeywordAnalysis.MissingKeywords),
					KeywordDensityScore: analysis.KeywordAnalysis.CoverageScore,
				},
			}
		}
	}
	return result, nil
}

// DownloadResume fetches a generated resume document by file id
func (c *Client) DownloadResume(ctx context.Context, fileID string) ([]byte, error) {
	return c.download(ctx, "/api/download/resume/"+fileID)
}

// DownloadCoverLetter fetches a generated cover letter document by file id
func (c *Client) DownloadCoverLetter(ctx context.Context, fileID string) ([]byte, error) {
	return c.download(ctx, "/api/download/cover-letter/"+fileID)
}

func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build download request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ClassifyTransportError("Document download", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ClassifyTransportError("Document download", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.UpstreamHTTPError(resp.Status, resp.StatusCode, payload)
	}
	return payload, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}
