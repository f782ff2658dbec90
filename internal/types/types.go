package types

// PersonalInfo holds the contact section of a normalized resume
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// Education represents a single education entry
type Education struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	GPA       string `json:"gpa"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Location  string `json:"location"`
}

// Experience represents a single work-experience entry
type Experience struct {
	Company    string   `json:"company"`
	Position   string   `json:"position"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Location   string   `json:"location"`
	Highlights []string `json:"highlights"`
}

// Project represents a single project entry
type Project struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Technologies string `json:"technologies"`
}

// Certification represents a single certification entry
type Certification struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuing_organization"`
	IssueDate           string `json:"issue_date"`
	ExpirationDate      string `json:"expiration_date"`
}

// Award represents a single award entry
type Award struct {
	Title        string `json:"title"`
	Issuer       string `json:"issuer"`
	DateReceived string `json:"date_received"`
	Description  string `json:"description"`
}

// Language represents a spoken-language entry
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// ResumeRecord is the normalized representation of an uploaded resume.
// Every field is always present with a type-correct default (empty string
// or empty slice), so consumers never need existence checks.
type ResumeRecord struct {
	Personal       PersonalInfo    `json:"personal"`
	Summary        string          `json:"summary"`
	Education      []Education     `json:"education"`
	Experience     []Experience    `json:"experience"`
	Skills         []string        `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Awards         []Award         `json:"awards"`
	Languages      []Language      `json:"languages"`
}

// KeywordAnalysis summarizes keyword overlap between a resume and a job description
type KeywordAnalysis struct {
	PresentKeywords     []string `json:"present_keywords"`
	MissingKeywords     []string `json:"missing_keywords"`
	KeywordDensityScore int      `json:"keyword_density_score"` // 0-100
}

// SectionRecommendations holds per-section improvement advice
type SectionRecommendations struct {
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
}

// AnalysisRecord is the canonical output of an enhancement call.
// Like ResumeRecord, every field is filled with a type-correct default
// regardless of which path produced it.
type AnalysisRecord struct {
	MatchScore             int                    `json:"match_score"` // 0-100
	Strengths              []string               `json:"strengths"`
	Gaps                   []string               `json:"gaps"`
	Suggestions            []string               `json:"suggestions"`
	KeywordAnalysis        KeywordAnalysis        `json:"keyword_analysis"`
	SectionRecommendations SectionRecommendations `json:"section_recommendations"`
}

// Enhancements holds rewritten resume material returned by the enhancement service
type Enhancements struct {
	EnhancedSummary           string   `json:"enhanced_summary"`
	EnhancedSkills            []string `json:"enhanced_skills"`
	EnhancedExperienceBullets []string `json:"enhanced_experience_bullets"`
	CoverLetterOutline        string   `json:"cover_letter_outline"`
}

// EnhancementMetadata describes how an enhancement response was produced
type EnhancementMetadata struct {
	ModelUsed              string `json:"model_used"`
	ModelType              string `json:"model_type"`
	Timestamp              string `json:"timestamp"`
	ResumeSectionsAnalyzed int    `json:"resume_sections_analyzed"`
	FileID                 string `json:"file_id"`
}

// EnhancementResult bundles the analysis with optional enhancements and metadata
type EnhancementResult struct {
	Analysis     AnalysisRecord      `json:"analysis"`
	Enhancements Enhancements        `json:"enhancements"`
	Metadata     EnhancementMetadata `json:"metadata"`
	FileID       string              `json:"file_id"`
}

// ExtractionResult is the outcome of one extraction call. Success carries the
// raw upstream JSON (pre-normalization) plus the normalized record; failure
// carries a classification code the caller can branch on.
type ExtractionResult struct {
	Success             bool          `json:"success"`
	Resume              *ResumeRecord `json:"resume,omitempty"`
	RawJSON             any           `json:"raw_json,omitempty"`
	ExtractedTextLength int           `json:"extracted_text_length,omitempty"`
	ErrorKind           string        `json:"error_kind,omitempty"`
	Message             string        `json:"message,omitempty"`
	FileID              string        `json:"file_id,omitempty"`
}

// JobPosting represents a single listing returned by the job-search collaborator
type JobPosting struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	URL            string `json:"url"`
	ApplyURL       string `json:"apply_url"`
	Salary         string `json:"salary"`
	EmploymentType string `json:"employment_type"`
	PostedAt       string `json:"posted_at"`
}

// JobSearchResult represents the outcome of a job search
type JobSearchResult struct {
	Query string       `json:"query"`
	Jobs  []JobPosting `json:"jobs"`
	Total int          `json:"total"`
}

// OptimizeResult is returned by the document-conversion collaborator
type OptimizeResult struct {
	ExtractedText  string          `json:"extracted_text"`
	Analysis       *AnalysisRecord `json:"analysis,omitempty"`
	ResumeURL      string          `json:"resume_url"`
	CoverLetterURL string          `json:"cover_letter_url"`
	FileID         string          `json:"file_id"`
}
