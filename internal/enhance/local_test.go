package enhance

import (
	"reflect"
	"strings"
	"testing"

	"resumepilot/internal/types"
)

func sampleRecord(skills ...string) *types.ResumeRecord {
	return &types.ResumeRecord{
		Personal: types.PersonalInfo{Name: "Jane Doe"},
		Summary:  "Backend engineer",
		Skills:   skills,
		Education: []types.Education{
			{School: "State University", Degree: "BSc", Field: "Computer Science"},
		},
		Experience:     []types.Experience{},
		Projects:       []types.Project{},
		Certifications: []types.Certification{},
		Awards:         []types.Award{},
		Languages:      []types.Language{},
	}
}

func TestJobKeywords(t *testing.T) {
	got := jobKeywords("Build scalable Golang services and PostgreSQL golang expertise")

	// "and" is filtered by length, "golang" appears once
	want := []string{"build", "scalable", "golang", "services", "postgresql", "expertise"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("jobKeywords = %v, want %v", got, want)
	}
}

func TestJobTokensKeepRepeats(t *testing.T) {
	got := jobTokens("golang services and golang expertise")

	want := []string{"golang", "services", "golang", "expertise"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("jobTokens = %v, want %v", got, want)
	}
}

func TestJobKeywordsLengthFilter(t *testing.T) {
	got := jobKeywords("go js sql abcd")
	if !reflect.DeepEqual(got, []string{"abcd"}) {
		t.Errorf("expected only tokens longer than 3 characters, got %v", got)
	}
}

func TestLocalAnalysisScoreBounds(t *testing.T) {
	jd := "golang postgresql kubernetes docker terraform observability monitoring distributed"

	t.Run("zero overlap floors at 60", func(t *testing.T) {
		record := sampleRecord("cobol", "fortran")
		record.Summary = "mainframe specialist"
		record.Personal = types.PersonalInfo{}
		record.Education = nil

		analysis := LocalAnalysis(record, jd)
		if analysis.MatchScore != 60 {
			t.Errorf("expected floor score 60, got %d", analysis.MatchScore)
		}
		if len(analysis.KeywordAnalysis.PresentKeywords) != 0 {
			t.Errorf("expected no present keywords, got %v", analysis.KeywordAnalysis.PresentKeywords)
		}
	})

	t.Run("full overlap caps at 95", func(t *testing.T) {
		record := sampleRecord("golang", "postgresql", "kubernetes", "docker",
			"terraform", "observability", "monitoring", "distributed")

		analysis := LocalAnalysis(record, jd)
		if analysis.MatchScore != 95 {
			t.Errorf("expected ceiling score 95, got %d", analysis.MatchScore)
		}
		if len(analysis.KeywordAnalysis.MissingKeywords) != 0 {
			t.Errorf("expected no missing keywords, got %v", analysis.KeywordAnalysis.MissingKeywords)
		}
	})

	t.Run("partial overlap lands between bounds", func(t *testing.T) {
		record := sampleRecord("golang", "postgresql", "kubernetes", "docker", "terraform", "observability")

		analysis := LocalAnalysis(record, jd)
		// 6 of 8 keywords = 75
		if analysis.MatchScore != 75 {
			t.Errorf("expected score 75, got %d", analysis.MatchScore)
		}
		if analysis.KeywordAnalysis.KeywordDensityScore != analysis.MatchScore {
			t.Errorf("density %d should mirror score %d",
				analysis.KeywordAnalysis.KeywordDensityScore, analysis.MatchScore)
		}
	})

	t.Run("repeated tokens weight the score", func(t *testing.T) {
		record := sampleRecord("golang")
		record.Summary = ""
		record.Personal = types.PersonalInfo{}
		record.Education = nil

		// "golang" matches twice out of three tokens: round(100*2/3) = 67.
		// Deduplicating before the ratio would give round(100*1/2) = 50
		// and clamp to the floor.
		analysis := LocalAnalysis(record, "golang golang cobol")
		if analysis.MatchScore != 67 {
			t.Errorf("expected score 67, got %d", analysis.MatchScore)
		}

		// The keyword lists stay deduplicated
		wantPresent := []string{"golang"}
		wantMissing := []string{"cobol"}
		if !reflect.DeepEqual(analysis.KeywordAnalysis.PresentKeywords, wantPresent) {
			t.Errorf("present = %v, want %v", analysis.KeywordAnalysis.PresentKeywords, wantPresent)
		}
		if !reflect.DeepEqual(analysis.KeywordAnalysis.MissingKeywords, wantMissing) {
			t.Errorf("missing = %v, want %v", analysis.KeywordAnalysis.MissingKeywords, wantMissing)
		}
	})

	t.Run("empty job description stays at floor", func(t *testing.T) {
		analysis := LocalAnalysis(sampleRecord("golang"), "")
		if analysis.MatchScore != 60 {
			t.Errorf("expected floor score 60 for empty input, got %d", analysis.MatchScore)
		}
	})
}

func TestLocalAnalysisDeterministic(t *testing.T) {
	record := sampleRecord("golang", "docker")
	jd := "golang docker kubernetes experience with distributed systems required"

	first := LocalAnalysis(record, jd)
	second := LocalAnalysis(record, jd)

	if !reflect.DeepEqual(first, second) {
		t.Error("local analysis must be deterministic for identical inputs")
	}
}

func TestLocalAnalysisKeywordPartition(t *testing.T) {
	record := sampleRecord("golang", "docker")
	jd := "golang docker kubernetes"

	analysis := LocalAnalysis(record, jd)

	wantPresent := []string{"golang", "docker"}
	wantMissing := []string{"kubernetes"}
	if !reflect.DeepEqual(analysis.KeywordAnalysis.PresentKeywords, wantPresent) {
		t.Errorf("present = %v, want %v", analysis.KeywordAnalysis.PresentKeywords, wantPresent)
	}
	if !reflect.DeepEqual(analysis.KeywordAnalysis.MissingKeywords, wantMissing) {
		t.Errorf("missing = %v, want %v", analysis.KeywordAnalysis.MissingKeywords, wantMissing)
	}

	// Missing keywords feed the suggestions and section recommendations
	if len(analysis.Suggestions) == 0 {
		t.Error("expected suggestions when keywords are missing")
	}
	if !strings.Contains(analysis.SectionRecommendations.Skills, "kubernetes") {
		t.Errorf("expected skills recommendation to mention the missing keyword, got %q",
			analysis.SectionRecommendations.Skills)
	}
}

func TestLocalAnalysisTotalDefaults(t *testing.T) {
	analysis := normalizeAnalysis(LocalAnalysis(sampleRecord(), "short words only here"))

	if analysis.Strengths == nil || analysis.Gaps == nil || analysis.Suggestions == nil {
		t.Error("no list field may be nil")
	}
	if analysis.KeywordAnalysis.PresentKeywords == nil || analysis.KeywordAnalysis.MissingKeywords == nil {
		t.Error("keyword lists may not be nil")
	}
}

func BenchmarkLocalAnalysis(b *testing.B) {
	record := sampleRecord("golang", "postgresql", "kubernetes", "docker")
	jd := strings.Repeat("golang postgresql kubernetes docker terraform monitoring ", 20)

	for b.Loop() {
		LocalAnalysis(record, jd)
	}
}
