package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumepilot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ExtractionResult", &ExtractionTextFormatter{})
	registry.RegisterFormatter("markdown", "ExtractionResult", &ExtractionMarkdownFormatter{})
	registry.RegisterFormatter("text", "AnalysisRecord", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisRecord", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "EnhancementResult", &EnhancementTextFormatter{})
	registry.RegisterFormatter("markdown", "EnhancementResult", &EnhancementMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobSearchResult", &JobSearchTextFormatter{})
	registry.RegisterFormatter("markdown", "JobSearchResult", &JobSearchMarkdownFormatter{})
	registry.RegisterFormatter("text", "OptimizeResult", &OptimizeTextFormatter{})
	registry.RegisterFormatter("markdown", "OptimizeResult", &OptimizeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ExtractionResult, *types.ExtractionResult:
		return "ExtractionResult"
	case types.AnalysisRecord, *types.AnalysisRecord:
		return "AnalysisRecord"
	case types.EnhancementResult, *types.EnhancementResult:
		return "EnhancementResult"
	case types.JobSearchResult, *types.JobSearchResult:
		return "JobSearchResult"
	case types.OptimizeResult, *types.OptimizeResult:
		return "OptimizeResult"
	default:
		return "any"
	}
}

// Coercion helpers so formatters accept both value and pointer shapes.
// The HTTP handlers pass pointers while some CLI paths pass values.

func asExtractionResult(data any) (types.ExtractionResult, bool) {
	switch v := data.(type) {
	case types.ExtractionResult:
		return v, true
	case *types.ExtractionResult:
		if v != nil {
			return *v, true
		}
	}
	return types.ExtractionResult{}, false
}

func asAnalysisRecord(data any) (types.AnalysisRecord, bool) {
	switch v := data.(type) {
	case types.AnalysisRecord:
		return v, true
	case *types.AnalysisRecord:
		if v != nil {
			return *v, true
		}
	}
	return types.AnalysisRecord{}, false
}

func asEnhancementResult(data any) (types.EnhancementResult, bool) {
	switch v := data.(type) {
	case types.EnhancementResult:
		return v, true
	case *types.EnhancementResult:
		if v != nil {
			return *v, true
		}
	}
	return types.EnhancementResult{}, false
}

func asJobSearchResult(data any) (types.JobSearchResult, bool) {
	switch v := data.(type) {
	case types.JobSearchResult:
		return v, true
	case *types.JobSearchResult:
		if v != nil {
			return *v, true
		}
	}
	return types.JobSearchResult{}, false
}

func asOptimizeResult(data any) (types.OptimizeResult, bool) {
	switch v := data.(type) {
	case types.OptimizeResult:
		return v, true
	case *types.OptimizeResult:
		if v != nil {
			return *v, true
		}
	}
	return types.OptimizeResult{}, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ExtractionTextFormatter handles text formatting for extraction results
type ExtractionTextFormatter struct{}

func (etf *ExtractionTextFormatter) Format(data any) (string, error) {
	result, ok := asExtractionResult(data)
	if !ok {
		return "", fmt.Errorf("expected ExtractionResult, got %T", data)
	}

	var output strings.Builder

	if !result.Success {
		output.WriteString("=== EXTRACTION FAILED ===\n\n")
		output.WriteString(fmt.Sprintf("Error kind: %s\n", result.ErrorKind))
		output.WriteString(fmt.Sprintf("Message: %s\n", result.Message))
		return output.String(), nil
	}

	output.WriteString("=== EXTRACTED RESUME ===\n\n")
	if result.Resume != nil {
		writeResumeText(&output, result.Resume)
	}
	if result.ExtractedTextLength > 0 {
		output.WriteString(fmt.Sprintf("\nExtracted text length: %d characters\n", result.ExtractedTextLength))
	}
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("File ID: %s\n", result.FileID))
	}

	return output.String(), nil
}

func (etf *ExtractionTextFormatter) SupportedType() string {
	return "ExtractionResult"
}

func writeResumeText(output *strings.Builder, resume *types.ResumeRecord) {
	p := resume.Personal
	output.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	if p.Email != "" {
		output.WriteString(fmt.Sprintf("Email: %s\n", p.Email))
	}
	if p.Phone != "" {
		output.WriteString(fmt.Sprintf("Phone: %s\n", p.Phone))
	}
	if p.Location != "" {
		output.WriteString(fmt.Sprintf("Location: %s\n", p.Location))
	}
	if resume.Summary != "" {
		output.WriteString("\nSummary:\n")
		output.WriteString(resume.Summary)
		output.WriteString("\n")
	}
	if len(resume.Skills) > 0 {
		output.WriteString("\nSkills:\n")
		for _, skill := range resume.Skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
	}
	if len(resume.Experience) > 0 {
		output.WriteString("\nExperience:\n")
		for _, exp := range resume.Experience {
			output.WriteString(fmt.Sprintf("- %s at %s (%s - %s)\n",
				exp.Position, exp.Company, exp.StartDate, exp.EndDate))
			for _, highlight := range exp.Highlights {
				output.WriteString(fmt.Sprintf("    * %s\n", highlight))
			}
		}
	}
	if len(resume.Education) > 0 {
		output.WriteString("\nEducation:\n")
		for _, edu := range resume.Education {
			output.WriteString(fmt.Sprintf("- %s, %s %s (%s - %s)\n",
				edu.School, edu.Degree, edu.Field, edu.StartDate, edu.EndDate))
		}
	}
	if len(resume.Projects) > 0 {
		output.WriteString("\nProjects:\n")
		for _, project := range resume.Projects {
			output.WriteString(fmt.Sprintf("- %s: %s\n", project.Title, project.Description))
		}
	}
	if len(resume.Certifications) > 0 {
		output.WriteString("\nCertifications:\n")
		for _, cert := range resume.Certifications {
			output.WriteString(fmt.Sprintf("- %s (%s)\n", cert.Name, cert.IssuingOrganization))
		}
	}
}

// ExtractionMarkdownFormatter handles markdown formatting for extraction results
type ExtractionMarkdownFormatter struct{}

func (emf *ExtractionMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asExtractionResult(data)
	if !ok {
		return "", fmt.Errorf("expected ExtractionResult, got %T", data)
	}

	var output strings.Builder

	if !result.Success {
		output.WriteString("# Extraction Failed\n\n")
		output.WriteString(fmt.Sprintf("**Error kind:** %s\n\n", result.ErrorKind))
		output.WriteString(fmt.Sprintf("**Message:** %s\n", result.Message))
		return output.String(), nil
	}

	output.WriteString("# Extracted Resume\n\n")
	if result.Resume != nil {
		resume := result.Resume
		p := resume.Personal
		output.WriteString(fmt.Sprintf("**%s**\n\n", p.Name))
		contact := make([]string, 0, 3)
		if p.Email != "" {
			contact = append(contact, p.Email)
		}
		if p.Phone != "" {
			contact = append(contact, p.Phone)
		}
		if p.Location != "" {
			contact = append(contact, p.Location)
		}
		if len(contact) > 0 {
			output.WriteString(strings.Join(contact, " | "))
			output.WriteString("\n\n")
		}
		if resume.Summary != "" {
			output.WriteString("## Summary\n\n")
			output.WriteString(resume.Summary)
			output.WriteString("\n\n")
		}
		if len(resume.Skills) > 0 {
			output.WriteString("## Skills\n\n")
			for _, skill := range resume.Skills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
			output.WriteString("\n")
		}
		if len(resume.Experience) > 0 {
			output.WriteString("## Experience\n\n")
			for _, exp := range resume.Experience {
				output.WriteString(fmt.Sprintf("### %s, %s\n\n", exp.Position, exp.Company))
				output.WriteString(fmt.Sprintf("%s - %s\n\n", exp.StartDate, exp.EndDate))
				for _, highlight := range exp.Highlights {
					output.WriteString(fmt.Sprintf("- %s\n", highlight))
				}
				output.WriteString("\n")
			}
		}
		if len(resume.Education) > 0 {
			output.WriteString("## Education\n\n")
			for _, edu := range resume.Education {
				output.WriteString(fmt.Sprintf("- **%s**, %s %s (%s - %s)\n",
					edu.School, edu.Degree, edu.Field, edu.StartDate, edu.EndDate))
			}
			output.WriteString("\n")
		}
	}
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("**File ID:** %s\n", result.FileID))
	}

	return output.String(), nil
}

func (emf *ExtractionMarkdownFormatter) SupportedType() string {
	return "ExtractionResult"
}

// AnalysisTextFormatter handles text formatting for enhancement analyses
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisRecord(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisRecord, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME MATCH ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Match Score: %d/100\n\n", result.MatchScore))

	if len(result.Strengths) > 0 {
		output.WriteString("Strengths:\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}

	if len(result.Gaps) > 0 {
		output.WriteString("Gaps:\n")
		for _, gap := range result.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("Suggestions:\n")
		for _, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("- %s\n", suggestion))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== KEYWORD ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("Keyword Density Score: %d/100\n\n", result.KeywordAnalysis.KeywordDensityScore))
	if len(result.KeywordAnalysis.PresentKeywords) > 0 {
		output.WriteString("Present Keywords:\n")
		output.WriteString(strings.Join(result.KeywordAnalysis.PresentKeywords, ", "))
		output.WriteString("\n\n")
	}
	if len(result.KeywordAnalysis.MissingKeywords) > 0 {
		output.WriteString("Missing Keywords:\n")
		output.WriteString(strings.Join(result.KeywordAnalysis.MissingKeywords, ", "))
		output.WriteString("\n\n")
	}

	output.WriteString("=== SECTION RECOMMENDATIONS ===\n")
	output.WriteString("Skills:\n")
	output.WriteString(result.SectionRecommendations.Skills)
	output.WriteString("\n\n")
	output.WriteString("Experience:\n")
	output.WriteString(result.SectionRecommendations.Experience)
	output.WriteString("\n\n")
	output.WriteString("Education:\n")
	output.WriteString(result.SectionRecommendations.Education)
	output.WriteString("\n")

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisRecord"
}

// AnalysisMarkdownFormatter handles markdown formatting for enhancement analyses
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisRecord(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisRecord, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Match Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Match Score:** %d/100\n\n", result.MatchScore))

	if len(result.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}

	if len(result.Gaps) > 0 {
		output.WriteString("## Gaps\n\n")
		for _, gap := range result.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for _, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("- %s\n", suggestion))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Keyword Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Keyword Density Score:** %d/100\n\n", result.KeywordAnalysis.KeywordDensityScore))
	if len(result.KeywordAnalysis.PresentKeywords) > 0 {
		output.WriteString("### Present Keywords\n\n")
		output.WriteString(strings.Join(result.KeywordAnalysis.PresentKeywords, ", "))
		output.WriteString("\n\n")
	}
	if len(result.KeywordAnalysis.MissingKeywords) > 0 {
		output.WriteString("### Missing Keywords\n\n")
		output.WriteString(strings.Join(result.KeywordAnalysis.MissingKeywords, ", "))
		output.WriteString("\n\n")
	}

	output.WriteString("## Section Recommendations\n\n")
	output.WriteString("### Skills\n")
	output.WriteString(result.SectionRecommendations.Skills)
	output.WriteString("\n\n")
	output.WriteString("### Experience\n")
	output.WriteString(result.SectionRecommendations.Experience)
	output.WriteString("\n\n")
	output.WriteString("### Education\n")
	output.WriteString(result.SectionRecommendations.Education)
	output.WriteString("\n")

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisRecord"
}

// EnhancementTextFormatter handles text formatting for full enhancement
// results: the analysis plus any rewritten material and model metadata
type EnhancementTextFormatter struct{}

func (etf *EnhancementTextFormatter) Format(data any) (string, error) {
	result, ok := asEnhancementResult(data)
	if !ok {
		return "", fmt.Errorf("expected EnhancementResult, got %T", data)
	}

	analysisText, err := (&AnalysisTextFormatter{}).Format(result.Analysis)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(analysisText)

	e := result.Enhancements
	if e.EnhancedSummary != "" || len(e.EnhancedSkills) > 0 || len(e.EnhancedExperienceBullets) > 0 || e.CoverLetterOutline != "" {
		output.WriteString("\n=== SUGGESTED REWRITES ===\n")
		if e.EnhancedSummary != "" {
			output.WriteString("Summary:\n")
			output.WriteString(e.EnhancedSummary)
			output.WriteString("\n\n")
		}
		if len(e.EnhancedSkills) > 0 {
			output.WriteString("Skills:\n")
			output.WriteString(strings.Join(e.EnhancedSkills, ", "))
			output.WriteString("\n\n")
		}
		if len(e.EnhancedExperienceBullets) > 0 {
			output.WriteString("Experience bullets:\n")
			for _, bullet := range e.EnhancedExperienceBullets {
				output.WriteString(fmt.Sprintf("- %s\n", bullet))
			}
			output.WriteString("\n")
		}
		if e.CoverLetterOutline != "" {
			output.WriteString("Cover letter outline:\n")
			output.WriteString(e.CoverLetterOutline)
			output.WriteString("\n")
		}
	}

	m := result.Metadata
	if m.ModelType != "" || m.ModelUsed != "" {
		output.WriteString("\n---\n")
		if m.ModelUsed != "" {
			output.WriteString(fmt.Sprintf("Model: %s (%s)\n", m.ModelUsed, m.ModelType))
		} else {
			output.WriteString(fmt.Sprintf("Strategy: %s\n", m.ModelType))
		}
		if m.Timestamp != "" {
			output.WriteString(fmt.Sprintf("Analyzed at: %s\n", m.Timestamp))
		}
	}
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("File ID: %s\n", result.FileID))
	}

	return output.String(), nil
}

func (etf *EnhancementTextFormatter) SupportedType() string {
	return "EnhancementResult"
}

// EnhancementMarkdownFormatter handles markdown formatting for full enhancement results
type EnhancementMarkdownFormatter struct{}

func (emf *EnhancementMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asEnhancementResult(data)
	if !ok {
		return "", fmt.Errorf("expected EnhancementResult, got %T", data)
	}

	analysisMarkdown, err := (&AnalysisMarkdownFormatter{}).Format(result.Analysis)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(analysisMarkdown)

	e := result.Enhancements
	if e.EnhancedSummary != "" || len(e.EnhancedSkills) > 0 || len(e.EnhancedExperienceBullets) > 0 || e.CoverLetterOutline != "" {
		output.WriteString("\n## Suggested Rewrites\n\n")
		if e.EnhancedSummary != "" {
			output.WriteString("### Summary\n\n")
			output.WriteString(e.EnhancedSummary)
			output.WriteString("\n\n")
		}
		if len(e.EnhancedSkills) > 0 {
			output.WriteString("### Skills\n\n")
			output.WriteString(strings.Join(e.EnhancedSkills, ", "))
			output.WriteString("\n\n")
		}
		if len(e.EnhancedExperienceBullets) > 0 {
			output.WriteString("### Experience Bullets\n\n")
			for _, bullet := range e.EnhancedExperienceBullets {
				output.WriteString(fmt.Sprintf("- %s\n", bullet))
			}
			output.WriteString("\n")
		}
		if e.CoverLetterOutline != "" {
			output.WriteString("### Cover Letter Outline\n\n")
			output.WriteString(e.CoverLetterOutline)
			output.WriteString("\n\n")
		}
	}

	m := result.Metadata
	if m.ModelType != "" || m.ModelUsed != "" {
		if m.ModelUsed != "" {
			output.WriteString(fmt.Sprintf("**Model:** %s (%s)\n\n", m.ModelUsed, m.ModelType))
		} else {
			output.WriteString(fmt.Sprintf("**Strategy:** %s\n\n", m.ModelType))
		}
		if m.Timestamp != "" {
			output.WriteString(fmt.Sprintf("**Analyzed at:** %s\n\n", m.Timestamp))
		}
	}
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("**File ID:** %s\n", result.FileID))
	}

	return output.String(), nil
}

func (emf *EnhancementMarkdownFormatter) SupportedType() string {
	return "EnhancementResult"
}

// JobSearchTextFormatter handles text formatting for job search results
type JobSearchTextFormatter struct{}

func (jtf *JobSearchTextFormatter) Format(data any) (string, error) {
	result, ok := asJobSearchResult(data)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB SEARCH RESULTS ===\n\n")
	output.WriteString(fmt.Sprintf("Query: %s\n", result.Query))
	output.WriteString(fmt.Sprintf("Total: %d\n\n", result.Total))

	if len(result.Jobs) == 0 {
		output.WriteString("No jobs found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, job.Title))
		output.WriteString(fmt.Sprintf("   Company: %s\n", job.Company))
		if job.Location != "" {
			output.WriteString(fmt.Sprintf("   Location: %s\n", job.Location))
		}
		if job.Salary != "" {
			output.WriteString(fmt.Sprintf("   Salary: %s\n", job.Salary))
		}
		if job.EmploymentType != "" {
			output.WriteString(fmt.Sprintf("   Type: %s\n", job.EmploymentType))
		}
		if job.ApplyURL != "" {
			output.WriteString(fmt.Sprintf("   Apply: %s\n", job.ApplyURL))
		} else if job.URL != "" {
			output.WriteString(fmt.Sprintf("   URL: %s\n", job.URL))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (jtf *JobSearchTextFormatter) SupportedType() string {
	return "JobSearchResult"
}

// JobSearchMarkdownFormatter handles markdown formatting for job search results
type JobSearchMarkdownFormatter struct{}

func (jmf *JobSearchMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asJobSearchResult(data)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Search Results\n\n")
	output.WriteString(fmt.Sprintf("**Query:** %s\n\n", result.Query))
	output.WriteString(fmt.Sprintf("**Total:** %d\n\n", result.Total))

	if len(result.Jobs) == 0 {
		output.WriteString("No jobs found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, job.Title))
		output.WriteString(fmt.Sprintf("**Company:** %s\n\n", job.Company))
		if job.Location != "" {
			output.WriteString(fmt.Sprintf("**Location:** %s\n\n", job.Location))
		}
		if job.Salary != "" {
			output.WriteString(fmt.Sprintf("**Salary:** %s\n\n", job.Salary))
		}
		if job.EmploymentType != "" {
			output.WriteString(fmt.Sprintf("**Type:** %s\n\n", job.EmploymentType))
		}
		if job.ApplyURL != "" {
			output.WriteString(fmt.Sprintf("[Apply](%s)\n\n", job.ApplyURL))
		} else if job.URL != "" {
			output.WriteString(fmt.Sprintf("[Listing](%s)\n\n", job.URL))
		}
	}

	return output.String(), nil
}

func (jmf *JobSearchMarkdownFormatter) SupportedType() string {
	return "JobSearchResult"
}

// OptimizeTextFormatter handles text formatting for optimization results
type OptimizeTextFormatter struct{}

func (otf *OptimizeTextFormatter) Format(data any) (string, error) {
	result, ok := asOptimizeResult(data)
	if !ok {
		return "", fmt.Errorf("expected OptimizeResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZATION RESULT ===\n\n")
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("File ID: %s\n", result.FileID))
	}
	if result.ResumeURL != "" {
		output.WriteString(fmt.Sprintf("Optimized resume: %s\n", result.ResumeURL))
	}
	if result.CoverLetterURL != "" {
		output.WriteString(fmt.Sprintf("Cover letter: %s\n", result.CoverLetterURL))
	}
	output.WriteString("\n")

	if result.Analysis != nil {
		analysisText, err := (&AnalysisTextFormatter{}).Format(*result.Analysis)
		if err != nil {
			return "", err
		}
		output.WriteString(analysisText)
	}

	return output.String(), nil
}

func (otf *OptimizeTextFormatter) SupportedType() string {
	return "OptimizeResult"
}

// OptimizeMarkdownFormatter handles markdown formatting for optimization results
type OptimizeMarkdownFormatter struct{}

func (omf *OptimizeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asOptimizeResult(data)
	if !ok {
		return "", fmt.Errorf("expected OptimizeResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Optimization Result\n\n")
	if result.FileID != "" {
		output.WriteString(fmt.Sprintf("**File ID:** %s\n\n", result.FileID))
	}
	if result.ResumeURL != "" {
		output.WriteString(fmt.Sprintf("**Optimized resume:** %s\n\n", result.ResumeURL))
	}
	if result.CoverLetterURL != "" {
		output.WriteString(fmt.Sprintf("**Cover letter:** %s\n\n", result.CoverLetterURL))
	}

	if result.Analysis != nil {
		analysisMarkdown, err := (&AnalysisMarkdownFormatter{}).Format(*result.Analysis)
		if err != nil {
			return "", err
		}
		output.WriteString(analysisMarkdown)
	}

	return output.String(), nil
}

func (omf *OptimizeMarkdownFormatter) SupportedType() string {
	return "OptimizeResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
