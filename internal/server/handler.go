package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"resumepilot/internal/common"
	"resumepilot/internal/enhance"
	"resumepilot/internal/extract"
	"resumepilot/internal/jobsearch"
	"resumepilot/internal/observability"
	"resumepilot/internal/resume"
	"resumepilot/internal/types"
	"resumepilot/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// readUpload pulls the resume document out of a multipart request
func (s *Server) readUpload(r *http.Request) (*common.Upload, error) {
	if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = utils.MIMETypeForFile(header.Filename)
	}

	return &common.Upload{
		Filename: header.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// createExtractHandler wraps the extract handler with observability
func (s *Server) createExtractHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumepilot.api")
		ctx, span := tracer.Start(ctx, "api.extract")
		defer span.End()

		upload, err := s.readUpload(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid upload", "multipart form with a 'file' part is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.mime_type", upload.MIMEType),
			attribute.Int("request.file_size", len(upload.Data)),
			attribute.String("operation", "extract"),
		)

		opts := extractOptionsFromForm(r)

		metrics := om.GetMetrics()
		var result *types.ExtractionResult
		err = metrics.TrackOperation(ctx, "extract", func(ctx context.Context) error {
			var extractErr error
			result, extractErr = s.Extractor.Extract(ctx, *upload, opts)
			return extractErr
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			metrics.RecordBusinessMetric(ctx, "resume_extracted", false,
				attribute.String("error", err.Error()))
			writeExtractionFailure(w, result, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_extracted", result.Success)

		span.SetAttributes(
			attribute.Bool("success", result.Success),
			attribute.String("file_id", result.FileID),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// extractOptionsFromForm picks optional overrides out of the multipart form
func extractOptionsFromForm(r *http.Request) extract.Options {
	return extract.Options{
		FileID:    r.FormValue("file_id"),
		ModelType: r.FormValue("model_type"),
		Model:     r.FormValue("model"),
	}
}

// writeExtractionFailure serializes a classified extraction failure. The
// extractor returns a failure-shaped result alongside the error so clients
// always get the same response envelope.
func writeExtractionFailure(w http.ResponseWriter, result *types.ExtractionResult, err error) {
	if result == nil {
		writeAppError(w, err)
		return
	}
	var status int
	if appErr, ok := asAppError(err); ok {
		status = statusForAppError(appErr)
	} else {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

// createEnhanceHandler wraps the enhance handler with observability
func (s *Server) createEnhanceHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumepilot.api")
		ctx, span := tracer.Start(ctx, "api.enhance")
		defer span.End()

		var req EnhanceRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if len(req.ResumeJSON) == 0 {
			writeErrorResponse(w, "Missing resume", "resumeJson field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		record, err := resume.Normalize(req.ResumeJSON)
		if err != nil || record == nil {
			writeErrorResponse(w, "Invalid resume", "resumeJson could not be interpreted as a resume record", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "enhance"),
			attribute.String("strategy", s.Enhancer.Strategy()),
		)

		metrics := om.GetMetrics()
		var result *types.EnhancementResult
		err = metrics.TrackOperation(ctx, "enhance", func(ctx context.Context) error {
			var enhanceErr error
			result, enhanceErr = s.Enhancer.Enhance(ctx, record, req.JobDescription, enhance.Options{
				FileID:   req.FileID,
				Strategy: req.Strategy,
			})
			return enhanceErr
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "enhancement"))
			metrics.RecordBusinessMetric(ctx, "resume_enhanced", false)
			writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_enhanced", true,
			attribute.Int("match_score", result.Analysis.MatchScore))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("match_score", result.Analysis.MatchScore),
			attribute.String("model_type", result.Metadata.ModelType),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createJobSearchHandler wraps the job search handler with observability
func (s *Server) createJobSearchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumepilot.api")
		ctx, span := tracer.Start(ctx, "api.jobs.search")
		defer span.End()

		var req JobSearchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		params := jobsearch.SearchParams{
			JobProfile: req.JobProfile,
			Experience: req.Experience,
			Location:   req.Location,
			NumPages:   req.NumPages,
		}

		span.SetAttributes(
			attribute.String("request.job_profile", req.JobProfile),
			attribute.String("request.location", req.Location),
			attribute.String("operation", "jobs.search"),
		)

		result, err := s.JobSearch.Search(ctx, params)

		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "job_search", false)
			writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_search", true,
			attribute.Int("jobs_found", result.Total))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("jobs_found", result.Total),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createOptimizeHandler wraps the optimize handler with observability
func (s *Server) createOptimizeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumepilot.api")
		ctx, span := tracer.Start(ctx, "api.optimize")
		defer span.End()

		upload, err := s.readUpload(r)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid upload", "multipart form with a 'file' part is required", http.StatusBadRequest)
			return
		}
		jobDescription := r.FormValue("job_description")

		span.SetAttributes(
			attribute.String("request.mime_type", upload.MIMEType),
			attribute.Int("request.file_size", len(upload.Data)),
			attribute.String("operation", "optimize"),
		)

		result, err := s.DocsClient.ExtractAndOptimize(ctx, *upload, jobDescription)

		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "document_generated", false)
			writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "document_generated", true)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("file_id", result.FileID),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createDownloadHandler proxies generated document downloads from the
// conversion backend. The path is /download/{resume|cover-letter}/{fileID}.
func (s *Server) createDownloadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumepilot.api")
		ctx, span := tracer.Start(ctx, "api.download")
		defer span.End()

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/download/")
		kind, fileID, found := strings.Cut(rest, "/")
		if !found || fileID == "" {
			writeErrorResponse(w, "Invalid download path", "expected /download/{resume|cover-letter}/{fileId}", http.StatusBadRequest)
			return
		}

		var data []byte
		var err error
		switch kind {
		case "resume":
			data, err = s.DocsClient.DownloadResume(ctx, fileID)
		case "cover-letter":
			data, err = s.DocsClient.DownloadCoverLetter(ctx, fileID)
		default:
			writeErrorResponse(w, "Invalid document kind", "expected 'resume' or 'cover-letter'", http.StatusBadRequest)
			return
		}

		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.String("document_kind", kind),
			attribute.String("file_id", fileID),
			attribute.Int("size", len(data)),
		)

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := originalMiddleware(next)
		return func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit rejections
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
