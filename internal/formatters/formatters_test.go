package formatters

import (
	"strings"
	"testing"

	"resumepilot/internal/types"
)

func sampleAnalysis() types.AnalysisRecord {
	return types.AnalysisRecord{
		MatchScore:  78,
		Strengths:   []string{"Resume already covers: golang, kubernetes"},
		Gaps:        []string{"Job keywords not found in the resume: terraform"},
		Suggestions: []string{"Weave missing keywords into existing bullet points where truthful"},
		KeywordAnalysis: types.KeywordAnalysis{
			PresentKeywords:     []string{"golang", "kubernetes"},
			MissingKeywords:     []string{"terraform"},
			KeywordDensityScore: 78,
		},
		SectionRecommendations: types.SectionRecommendations{
			Skills:     "Add terraform if applicable",
			Experience: "Quantify outcomes",
			Education:  "No changes needed",
		},
	}
}

func TestJSONFormatterAnyType(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleAnalysis(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, `"match_score": 78`) {
		t.Errorf("JSON output missing match score: %s", out)
	}
}

func TestAnalysisTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleAnalysis(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	for _, want := range []string{"Match Score: 78/100", "golang, kubernetes", "terraform"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestAnalysisMarkdownFormatterAcceptsPointer(t *testing.T) {
	analysis := sampleAnalysis()
	out, err := GlobalRegistry.Format(&analysis, "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "# Resume Match Analysis") {
		t.Errorf("markdown output missing heading: %s", out)
	}
	if !strings.Contains(out, "**Match Score:** 78/100") {
		t.Errorf("markdown output missing score: %s", out)
	}
}

func TestEnhancementResultFormatters(t *testing.T) {
	result := types.EnhancementResult{
		Analysis: sampleAnalysis(),
		Enhancements: types.Enhancements{
			EnhancedSummary:           "Backend engineer with production Kubernetes experience.",
			EnhancedSkills:            []string{"golang", "terraform"},
			EnhancedExperienceBullets: []string{"Led migration to Kubernetes across 12 services"},
		},
		Metadata: types.EnhancementMetadata{
			ModelUsed: "gpt-4o",
			ModelType: "OpenAI",
			Timestamp: "2026-08-28T10:00:00Z",
		},
		FileID: "f-123",
	}

	t.Run("text", func(t *testing.T) {
		out, err := GlobalRegistry.Format(result, "text")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		for _, want := range []string{
			"Match Score: 78/100",
			"SUGGESTED REWRITES",
			"Backend engineer with production Kubernetes experience.",
			"golang, terraform",
			"Led migration to Kubernetes across 12 services",
			"Model: gpt-4o (OpenAI)",
			"File ID: f-123",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q", want)
			}
		}
	})

	t.Run("markdown accepts pointer", func(t *testing.T) {
		out, err := GlobalRegistry.Format(&result, "markdown")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		for _, want := range []string{"# Resume Match Analysis", "## Suggested Rewrites", "**Model:** gpt-4o (OpenAI)"} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown output missing %q", want)
			}
		}
	})

	t.Run("empty enhancements omit the rewrite section", func(t *testing.T) {
		bare := types.EnhancementResult{Analysis: sampleAnalysis(), Metadata: types.EnhancementMetadata{ModelType: "local"}}
		out, err := GlobalRegistry.Format(bare, "text")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if strings.Contains(out, "SUGGESTED REWRITES") {
			t.Error("rewrite section should be omitted when there is nothing to show")
		}
		if !strings.Contains(out, "Strategy: local") {
			t.Errorf("expected strategy line, got: %s", out)
		}
	})
}

func TestExtractionFormatterFailureShape(t *testing.T) {
	result := types.ExtractionResult{
		Success:   false,
		ErrorKind: "TIMEOUT",
		Message:   "The extraction service did not respond in time",
	}
	out, err := GlobalRegistry.Format(result, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "EXTRACTION FAILED") || !strings.Contains(out, "TIMEOUT") {
		t.Errorf("failure output incomplete: %s", out)
	}
}

func TestJobSearchFormatterEmptyResults(t *testing.T) {
	result := types.JobSearchResult{Query: "Golang Developer in Austin", Jobs: []types.JobPosting{}, Total: 0}
	out, err := GlobalRegistry.Format(result, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "No jobs found.") {
		t.Errorf("expected empty-results message, got: %s", out)
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	if _, err := GlobalRegistry.Format(sampleAnalysis(), "yaml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := GlobalRegistry.GetSupportedFormats()
	want := map[string]bool{"json": false, "text": false, "markdown": false}
	for _, f := range formats {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("format %q not registered", f)
		}
	}
}
