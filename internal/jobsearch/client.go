// Package jobsearch queries a JSearch-style listings API and maps its loose
// provider fields onto JobPosting records.
package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"resumepilot/internal/common"
	"resumepilot/internal/config"
	"resumepilot/internal/errors"
	"resumepilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SearchParams describes one job search
type SearchParams struct {
	JobProfile string
	Experience string // "Fresher" or "Experienced"
	Location   string
	NumPages   int
}

// ValidateSearchParams runs before any network call
func ValidateSearchParams(params SearchParams) error {
	if strings.TrimSpace(params.JobProfile) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job profile is required", nil)
	}
	if strings.TrimSpace(params.Location) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Location is required", nil)
	}
	switch params.Experience {
	case "Fresher", "Experienced":
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			`Experience must be either "Fresher" or "Experienced"`, nil)
	}
	return nil
}

// Client calls the job listings API
type Client struct {
	cfg        config.JobSearchConfig
	httpClient *http.Client
	logger     *errors.Logger
	tracer     trace.Tracer
}

// NewClient creates a job search client from the application configuration
func NewClient(cfg *config.Config, logger *errors.Logger) *Client {
	return &Client{
		cfg:        cfg.JobSearch,
		httpClient: &http.Client{},
		logger:     logger,
		tracer:     otel.Tracer("resumepilot/jobsearch"),
	}
}

// Search queries the listings API. Postings without a title or company are
// dropped; the rest get "N/A" defaults for missing fields.
func (c *Client) Search(ctx context.Context, params SearchParams) (*types.JobSearchResult, error) {
	if err := ValidateSearchParams(params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials,
			"Job search API key is not configured. Set RESUMEPILOT_JOBSEARCH_APIKEY or configure Vault secret loading", nil)
	}

	query := buildQuery(params)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "jobsearch.Search",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.Int("num_pages", numPages(params, c.cfg)),
		))
	defer span.End()

	result, err := c.doSearch(ctx, query, params)
	if err != nil {
		span.RecordError(err)
		if c.logger != nil {
			c.logger.LogError(err, "Job search failed", "query", query)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("jobs_found", result.Total))
	return result, nil
}

// buildQuery mirrors the search phrase the listings API responds to best:
// "<profile> jobs in <state>" plus a seniority hint. When the location has a
// comma, only the trailing state/region segment is used.
func buildQuery(params SearchParams) string {
	location := strings.TrimSpace(params.Location)
	if idx := strings.LastIndex(location, ","); idx >= 0 {
		location = strings.TrimSpace(location[idx+1:])
	}

	query := fmt.Sprintf("%s jobs in %s", strings.TrimSpace(params.JobProfile), location)
	switch strings.ToLower(params.Experience) {
	case "experienced":
		query += " senior"
	case "fresher":
		query += " entry level"
	}
	return query
}

func numPages(params SearchParams, cfg config.JobSearchConfig) int {
	if params.NumPages > 0 {
		return params.NumPages
	}
	if cfg.NumPages > 0 {
		return cfg.NumPages
	}
	return 1
}

func (c *Client) doSearch(ctx context.Context, query string, params SearchParams) (*types.JobSearchResult, error) {
	values := url.Values{
		"query":       {query},
		"page":        {"1"},
		"num_pages":   {strconv.Itoa(numPages(params, c.cfg))},
		"country":     {"us"},
		"date_posted": {"all"},
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/search?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build job search request", err)
	}
	req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ClassifyTransportError("Job search", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ClassifyTransportError("Job search", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.UpstreamHTTPError(resp.Status, resp.StatusCode, payload)
	}

	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeMalformedResponse,
			"Job search service returned a response that could not be parsed", err)
	}

	result := &types.JobSearchResult{
		Query: query,
		Jobs:  []types.JobPosting{},
	}
	for _, raw := range body.Data {
		posting, ok := mapPosting(raw)
		if !ok {
			continue
		}
		result.Jobs = append(result.Jobs, posting)
	}
	result.Total = len(result.Jobs)
	return result, nil
}

// mapPosting converts one provider record into a JobPosting. Returns false
// when the record has neither a title nor an employer and should be dropped.
func mapPosting(raw map[string]any) (types.JobPosting, bool) {
	title := stringField(raw, "job_title")
	company := stringField(raw, "employer_name")
	if title == "" || company == "" {
		return types.JobPosting{}, false
	}

	posting := types.JobPosting{
		Title:          title,
		Company:        company,
		Location:       postingLocation(raw),
		Description:    fallback(stringField(raw, "job_description"), "No description available"),
		URL:            firstNonEmpty(stringField(raw, "job_url"), stringField(raw, "job_apply_link")),
		ApplyURL:       firstNonEmpty(stringField(raw, "job_apply_link"), stringField(raw, "job_url")),
		EmploymentType: fallback(stringField(raw, "job_employment_type"), "N/A"),
		PostedAt:       fallback(stringField(raw, "job_posted_at_datetime_utc"), "N/A"),
		Salary:         postingSalary(raw),
	}
	return posting, true
}

// postingLocation joins city/state/country, falling back through the
// provider's alternative location fields
func postingLocation(raw map[string]any) string {
	var parts []string
	for _, key := range []string{"job_city", "job_state", "job_country"} {
		if v := stringField(raw, key); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return firstNonEmpty(
		stringField(raw, "job_location"),
		stringField(raw, "employer_location"),
		"N/A")
}

// postingSalary formats "$min - $max" when the provider reports numbers
func postingSalary(raw map[string]any) string {
	minSalary, ok := numberField(raw, "job_min_salary")
	if !ok {
		return "N/A"
	}
	salary := "$" + formatSalary(minSalary)
	if maxSalary, ok := numberField(raw, "job_max_salary"); ok {
		salary += " - $" + formatSalary(maxSalary)
	}
	return salary
}

func formatSalary(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func numberField(raw map[string]any, key string) (float64, bool) {
	n, ok := raw[key].(float64)
	return n, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
