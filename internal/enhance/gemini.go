package enhance

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"resumepilot/internal/breaker"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// defaultGeminiPrompt is the built-in analysis prompt. The two %s verbs take
// the resume JSON and the job description. Override with enhance.gemini.promptFile.
const defaultGeminiPrompt = `You are an expert resume reviewer and recruiter.
Compare the resume below against the job description and produce a structured analysis.

Score the overall match from 0 to 100, list concrete strengths, gaps, and
actionable suggestions, identify which job description keywords are present in
or missing from the resume, and give one short recommendation each for the
skills, experience, and education sections.

Resume (JSON):
%s

Job description:
%s`

// geminiStrategy calls Gemini directly with a response schema that yields
// the analysis shape
type geminiStrategy struct {
	client  *genai.Client
	cfg     config.GeminiConfig
	prompt  string
	breaker *breaker.Breaker[*genai.GenerateContentResponse]
	logger  *errors.Logger
	tracer  trace.Tracer
}

func newGeminiStrategy(cfg config.GeminiConfig, logger *errors.Logger) (*geminiStrategy, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}

	prompt := defaultGeminiPrompt
	if cfg.PromptFile != "" {
		content, err := os.ReadFile(cfg.PromptFile)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Failed to read Gemini prompt file: %s", cfg.PromptFile), err)
		}
		prompt = string(content)
	}

	return &geminiStrategy{
		client:  client,
		cfg:     cfg,
		prompt:  prompt,
		breaker: breaker.New[*genai.GenerateContentResponse]("gemini-enhance", cfg.CircuitBreaker, logger),
		logger:  logger,
		tracer:  otel.Tracer("resumepilot/enhance/gemini"),
	}, nil
}

func (g *geminiStrategy) name() string { return "gemini" }

func (g *geminiStrategy) hasCredentials() bool {
	return strings.TrimSpace(g.cfg.APIKey) != ""
}

func (g *geminiStrategy) enhance(ctx context.Context, resumeJSON []byte, jobDescription, fileID string) (*types.EnhancementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, *g.cfg.Timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "gemini.enhance",
		trace.WithAttributes(
			attribute.String("ai.model", g.cfg.Model),
			attribute.Float64("ai.temperature", float64(*g.cfg.Temperature)),
			attribute.Int("input.resume_length", len(resumeJSON)),
			attribute.Int("input.job_length", len(jobDescription)),
		))
	defer span.End()

	userPrompt := fmt.Sprintf(g.prompt, string(resumeJSON), jobDescription)
	genConfig := g.buildAnalysisSchema()

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(userPrompt), genConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, errors.NewUpstreamError(errors.ErrCodeUpstreamError,
			"Gemini enhancement failed", err)
	}

	var analysis types.AnalysisRecord
	if err := json.Unmarshal([]byte(result.Text()), &analysis); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Failed to parse Gemini analysis response", err)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("match_score", analysis.MatchScore),
	)
	return &types.EnhancementResult{
		Analysis: analysis,
		Metadata: types.EnhancementMetadata{
			ModelUsed: g.cfg.Model,
			ModelType: "gemini",
			FileID:    fileID,
		},
		FileID: fileID,
	}, nil
}

// executeWithRetry retries retryable failures with exponential backoff and
// jitter, capped at 30 seconds per wait
func (g *geminiStrategy) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.cfg.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if g.logger != nil {
				g.logger.Warn("Retrying Gemini enhancement",
					"attempt", attempt,
					"max_retries", maxRetries,
					"error", lastErr.Error())
			}

			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 && g.logger != nil {
				g.logger.Info("Gemini enhancement succeeded after retry",
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, fmt.Errorf("gemini call failed after %d attempts: %w", maxRetries+1, lastErr)
}

// isRetryableError reports whether a Gemini failure is worth retrying:
// network errors and 429/5xx API responses are, everything else is not
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// buildAnalysisSchema constrains the Gemini response to the analysis shape
func (g *geminiStrategy) buildAnalysisSchema() *genai.GenerateContentConfig {
	stringArray := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"match_score": {Type: genai.TypeInteger},
				"strengths":   stringArray,
				"gaps":        stringArray,
				"suggestions": stringArray,
				"keyword_analysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"present_keywords":      stringArray,
						"missing_keywords":      stringArray,
						"keyword_density_score": {Type: genai.TypeInteger},
					},
					Required: []string{"present_keywords", "missing_keywords", "keyword_density_score"},
				},
				"section_recommendations": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"skills":     {Type: genai.TypeString},
						"experience": {Type: genai.TypeString},
						"education":  {Type: genai.TypeString},
					},
					Required: []string{"skills", "experience", "education"},
				},
			},
			Required: []string{"match_score", "strengths", "gaps", "suggestions",
				"keyword_analysis", "section_recommendations"},
		},
	}

	if *g.cfg.Temperature > 0 {
		cfg.Temperature = g.cfg.Temperature
	}

	return cfg
}
