// Package enhance scores a normalized resume against a job description.
// Three strategies exist: "upstream" (the external AI service), "gemini"
// (direct Gemini call) and "local" (deterministic keyword overlap). Remote
// strategies fall back to the local scorer on failure.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// remoteStrategy is implemented by the upstream and gemini paths
type remoteStrategy interface {
	name() string
	hasCredentials() bool
	enhance(ctx context.Context, resumeJSON []byte, jobDescription, fileID string) (*types.EnhancementResult, error)
}

// Options overrides per-call enhancement parameters
type Options struct {
	FileID string
	// Strategy overrides the configured strategy for this call when non-empty
	Strategy string
}

// FallbackFunc is invoked when a remote strategy fails and the local scorer
// takes over. Used to record fallback activations in metrics.
type FallbackFunc func(strategy string, cause error)

// Service reconciles the configured enhancement strategy with its fallback
type Service struct {
	strategy   string
	remote     remoteStrategy
	OnFallback FallbackFunc
	logger     *errors.Logger
	tracer     trace.Tracer
}

// NewService creates an enhancement service for the configured strategy.
// The gemini strategy constructs its client eagerly so configuration
// problems surface at startup.
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	s := &Service{
		strategy: cfg.Enhance.Strategy,
		logger:   logger,
		tracer:   otel.Tracer("resumepilot/enhance"),
	}

	switch cfg.Enhance.Strategy {
	case "local":
		// no remote path
	case "upstream":
		s.remote = newUpstreamStrategy(cfg.Upstream, logger)
	case "gemini":
		gemini, err := newGeminiStrategy(cfg.GetGeminiConfig(), logger)
		if err != nil {
			return nil, err
		}
		s.remote = gemini
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported enhancement strategy: %s", cfg.Enhance.Strategy), nil)
	}

	return s, nil
}

// Strategy returns the configured strategy name
func (s *Service) Strategy() string { return s.strategy }

// IsHealthy reports whether the remote strategy's circuit breaker is closed.
// The local strategy is always healthy.
func (s *Service) IsHealthy() bool {
	switch remote := s.remote.(type) {
	case *upstreamStrategy:
		return remote.breaker.IsHealthy()
	case *geminiStrategy:
		return remote.breaker.IsHealthy()
	default:
		return true
	}
}

// Enhance scores the resume against the job description. The job
// description length check and the credentials check both run before any
// network I/O. Whatever path produced the record, every field comes back
// with a type-correct default and scores clamped to [0,100]. Remote
// strategies may attach rewritten resume material and model metadata; the
// local path stamps its own metadata so callers can tell which path ran.
func (s *Service) Enhance(ctx context.Context, record *types.ResumeRecord, jobDescription string, opts Options) (*types.EnhancementResult, error) {
	if err := common.ValidateJobDescription(jobDescription); err != nil {
		return nil, err
	}

	remote := s.remote
	strategy := s.strategy
	if opts.Strategy != "" && opts.Strategy != strategy {
		// A per-call override only narrows to "local"; switching to a remote
		// strategy needs the service constructed for it.
		if opts.Strategy != "local" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Strategy %q is not available; the service is configured for %q", opts.Strategy, strategy), nil)
		}
		remote = nil
		strategy = "local"
	}

	if remote != nil && !remote.hasCredentials() {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials,
			fmt.Sprintf("No credentials configured for the %s enhancement strategy", remote.name()), nil)
	}

	ctx, span := s.tracer.Start(ctx, "enhance.Enhance",
		trace.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.Int("job_description_length", len(jobDescription)),
		))
	defer span.End()

	if remote == nil {
		if record == nil {
			return nil, errors.NewInternalError(errors.ErrCodeEnhancementFailed,
				"Cannot analyze the resume: the extracted record is unusable", nil)
		}
		return localResult(record, jobDescription, opts.FileID), nil
	}

	resumeJSON, err := marshalRecord(record)
	if err != nil {
		return nil, err
	}

	result, remoteErr := remote.enhance(ctx, resumeJSON, jobDescription, opts.FileID)
	if remoteErr == nil {
		return normalizeResult(result, remote.name(), opts.FileID), nil
	}

	span.RecordError(remoteErr)
	if record == nil {
		// The fallback needs a usable record; surface the most specific cause.
		return nil, errors.NewInternalError(errors.ErrCodeEnhancementFailed,
			"Enhancement failed and no usable resume record is available for local analysis", remoteErr)
	}

	if s.logger != nil {
		s.logger.LogError(remoteErr, "Remote enhancement failed, falling back to local analysis",
			"strategy", remote.name())
	}
	if s.OnFallback != nil {
		s.OnFallback(remote.name(), remoteErr)
	}
	span.SetAttributes(attribute.Bool("fallback", true))

	return localResult(record, jobDescription, opts.FileID), nil
}

// localResult wraps the deterministic scorer's output with metadata naming
// the path that produced it
func localResult(record *types.ResumeRecord, jobDescription, fileID string) *types.EnhancementResult {
	result := &types.EnhancementResult{
		Analysis: *normalizeAnalysis(LocalAnalysis(record, jobDescription)),
		Metadata: types.EnhancementMetadata{
			ModelType:              "local",
			ResumeSectionsAnalyzed: countResumeSections(record),
		},
	}
	return normalizeResult(result, "local", fileID)
}

// countResumeSections reports how many resume sections carried content
func countResumeSections(record *types.ResumeRecord) int {
	if record == nil {
		return 0
	}
	count := 0
	if record.Personal != (types.PersonalInfo{}) {
		count++
	}
	if record.Summary != "" {
		count++
	}
	if len(record.Education) > 0 {
		count++
	}
	if len(record.Experience) > 0 {
		count++
	}
	if len(record.Skills) > 0 {
		count++
	}
	if len(record.Projects) > 0 {
		count++
	}
	if len(record.Certifications) > 0 {
		count++
	}
	if len(record.Awards) > 0 {
		count++
	}
	if len(record.Languages) > 0 {
		count++
	}
	return count
}

func marshalRecord(record *types.ResumeRecord) ([]byte, error) {
	if record == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to serialize the resume record", err)
	}
	return data, nil
}

// normalizeResult applies the total-default policy to a full enhancement
// result and fills in any metadata the producing strategy left blank
func normalizeResult(r *types.EnhancementResult, strategy, fileID string) *types.EnhancementResult {
	if r == nil {
		r = &types.EnhancementResult{}
	}
	normalizeAnalysis(&r.Analysis)
	if r.Enhancements.EnhancedSkills == nil {
		r.Enhancements.EnhancedSkills = []string{}
	}
	if r.Enhancements.EnhancedExperienceBullets == nil {
		r.Enhancements.EnhancedExperienceBullets = []string{}
	}
	if r.Metadata.ModelType == "" {
		r.Metadata.ModelType = strategy
	}
	if r.Metadata.Timestamp == "" {
		r.Metadata.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if r.FileID == "" {
		r.FileID = fileID
	}
	if r.Metadata.FileID == "" {
		r.Metadata.FileID = r.FileID
	}
	return r
}

// normalizeAnalysis enforces the total-default policy on whatever a
// strategy produced: nil slices become empty and scores land in [0,100]
func normalizeAnalysis(a *types.AnalysisRecord) *types.AnalysisRecord {
	if a == nil {
		a = &types.AnalysisRecord{}
	}
	a.MatchScore = clampInt(a.MatchScore, 0, 100)
	a.KeywordAnalysis.KeywordDensityScore = clampInt(a.KeywordAnalysis.KeywordDensityScore, 0, 100)
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Gaps == nil {
		a.Gaps = []string{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []string{}
	}
	if a.KeywordAnalysis.PresentKeywords == nil {
		a.KeywordAnalysis.PresentKeywords = []string{}
	}
	if a.KeywordAnalysis.MissingKeywords == nil {
		a.KeywordAnalysis.MissingKeywords = []string{}
	}
	return a
}
