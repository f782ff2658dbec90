package enhance

import (
	"fmt"
	"math"
	"strings"

	"resumepilot/internal/resume"
	"resumepilot/internal/types"
)

// localScoreFloor and localScoreCeiling bound the keyword-overlap score so
// the offline heuristic never claims a perfect match or a hopeless one.
const (
	localScoreFloor   = 60
	localScoreCeiling = 95
)

// minKeywordLength filters out stopword-sized tokens before matching
const minKeywordLength = 3

// LocalAnalysis scores a resume against a job description without any
// network call. Deterministic: the same inputs always produce the same
// record. Used as the "local" strategy and as the fallback when a remote
// strategy fails.
func LocalAnalysis(record *types.ResumeRecord, jobDescription string) *types.AnalysisRecord {
	tokens := jobTokens(jobDescription)
	keywords := jobKeywords(jobDescription)
	blob := resume.Flatten(record)

	present := make([]string, 0, len(keywords))
	missing := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(blob, kw) {
			present = append(present, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	// The ratio counts every token occurrence, so a term the posting
	// repeats weighs more than one it mentions once. The keyword lists
	// above stay deduplicated for readability.
	matched := 0
	for _, token := range tokens {
		if strings.Contains(blob, token) {
			matched++
		}
	}

	score := localScoreFloor
	if len(tokens) > 0 {
		raw := math.Round(100 * float64(matched) / float64(len(tokens)))
		score = clampInt(int(raw), localScoreFloor, localScoreCeiling)
	}

	analysis := &types.AnalysisRecord{
		MatchScore:  score,
		Strengths:   localStrengths(present),
		Gaps:        localGaps(missing),
		Suggestions: localSuggestions(missing),
		KeywordAnalysis: types.KeywordAnalysis{
			PresentKeywords:     present,
			MissingKeywords:     missing,
			KeywordDensityScore: score,
		},
		SectionRecommendations: localSectionRecommendations(missing),
	}
	return analysis
}

// jobTokens tokenizes a job description on whitespace, keeps tokens longer
// than minKeywordLength and lowercases them. Repeated tokens are kept so the
// score can weight them.
func jobTokens(jobDescription string) []string {
	var tokens []string
	for _, token := range strings.Fields(jobDescription) {
		token = strings.ToLower(token)
		if len(token) <= minKeywordLength {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// jobKeywords is jobTokens deduplicated preserving first-seen order
func jobKeywords(jobDescription string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, token := range jobTokens(jobDescription) {
		if seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func localStrengths(present []string) []string {
	if len(present) == 0 {
		return []string{}
	}
	sample := present
	if len(sample) > 5 {
		sample = sample[:5]
	}
	return []string{
		fmt.Sprintf("Resume already reflects %d keywords from the job description, including: %s",
			len(present), strings.Join(sample, ", ")),
	}
}

func localGaps(missing []string) []string {
	if len(missing) == 0 {
		return []string{}
	}
	sample := missing
	if len(sample) > 5 {
		sample = sample[:5]
	}
	return []string{
		fmt.Sprintf("Job description terms not found in the resume: %s",
			strings.Join(sample, ", ")),
	}
}

func localSuggestions(missing []string) []string {
	suggestions := []string{
		"Quantify achievements in experience bullets where possible",
	}
	if len(missing) > 0 {
		suggestions = append([]string{
			"Work the missing job description keywords into your summary and experience sections where they genuinely apply",
		}, suggestions...)
	}
	return suggestions
}

func localSectionRecommendations(missing []string) types.SectionRecommendations {
	rec := types.SectionRecommendations{
		Skills:     "List concrete tools and technologies rather than broad categories",
		Experience: "Lead each bullet with an action verb and a measurable outcome",
		Education:  "Include relevant coursework or certifications if the degree is recent",
	}
	if len(missing) > 0 {
		rec.Skills = fmt.Sprintf("Consider adding skills the posting asks for, such as: %s",
			strings.Join(firstN(missing, 3), ", "))
	}
	return rec
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
