// Package resume normalizes the loosely-shaped JSON returned by extraction
// services into the fixed ResumeRecord schema. Upstream models disagree on
// key names, so every target field carries an ordered list of alternate
// source keys; the first defined value wins and missing fields get
// type-correct defaults.
package resume

import (
	"encoding/json"
	"strconv"
	"strings"

	"resumepilot/internal/errors"
	"resumepilot/internal/types"
)

// Normalize converts an arbitrary decoded JSON value (or a string containing
// JSON) into a ResumeRecord. A string input is parsed first; parse failure is
// a terminal MALFORMED_RESPONSE error. A top-level value that is not an
// object yields (nil, nil) so the caller can choose its own messaging.
func Normalize(raw any) (*types.ResumeRecord, error) {
	if s, ok := raw.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, errors.NewUpstreamError(
				errors.ErrCodeMalformedResponse,
				"extraction service returned JSON that does not parse",
				err,
			)
		}
		raw = decoded
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, nil
	}

	rec := &types.ResumeRecord{
		Personal:       normalizePersonal(obj),
		Summary:        firstString(obj, "summary", "objective"),
		Education:      mapObjects(obj, educationFromSource, "education"),
		Experience:     mapObjects(obj, experienceFromSource, "experience"),
		Skills:         skillList(fieldValue(obj, "skills")),
		Projects:       mapObjects(obj, projectFromSource, "projects"),
		Certifications: mapObjects(obj, certificationFromSource, "certifications"),
		Awards:         mapObjects(obj, awardFromSource, "awards"),
		Languages:      languageList(fieldValue(obj, "languages")),
	}

	return rec, nil
}

// personalFields is the alternate-key table for the contact section.
// Order matters: the first listed key takes precedence.
var personalFields = []struct {
	keys   []string
	assign func(*types.PersonalInfo, string)
}{
	{[]string{"name", "full_name"}, func(p *types.PersonalInfo, v string) { p.Name = v }},
	{[]string{"email"}, func(p *types.PersonalInfo, v string) { p.Email = v }},
	{[]string{"phone", "phone_number"}, func(p *types.PersonalInfo, v string) { p.Phone = v }},
	{[]string{"location", "address"}, func(p *types.PersonalInfo, v string) { p.Location = v }},
	{[]string{"linkedin", "linkedin_url"}, func(p *types.PersonalInfo, v string) { p.LinkedIn = v }},
	{[]string{"website", "portfolio"}, func(p *types.PersonalInfo, v string) { p.Website = v }},
}

func normalizePersonal(obj map[string]any) types.PersonalInfo {
	// Some models nest contact details under "personal", others flatten them.
	src := obj
	if nested, ok := obj["personal"].(map[string]any); ok {
		src = nested
	}

	var p types.PersonalInfo
	for _, f := range personalFields {
		f.assign(&p, firstString(src, f.keys...))
	}
	return p
}

func educationFromSource(m map[string]any) types.Education {
	return types.Education{
		School:    firstString(m, "school", "institution", "university"),
		Degree:    firstString(m, "degree", "degree_type"),
		Field:     firstString(m, "field", "major", "field_of_study"),
		GPA:       firstString(m, "gpa"),
		StartDate: firstString(m, "start_date", "from"),
		EndDate:   firstString(m, "end_date", "to"),
		Location:  firstString(m, "location"),
	}
}

func experienceFromSource(m map[string]any) types.Experience {
	return types.Experience{
		Company:    firstString(m, "company", "employer"),
		Position:   firstString(m, "position", "title", "job_title"),
		StartDate:  firstString(m, "start_date", "from"),
		EndDate:    firstString(m, "end_date", "to"),
		Location:   firstString(m, "location"),
		Highlights: highlightList(m),
	}
}

func projectFromSource(m map[string]any) types.Project {
	return types.Project{
		Title:        firstString(m, "title", "name"),
		Description:  firstString(m, "description"),
		URL:          firstString(m, "url", "link"),
		Technologies: technologyString(fieldValue(m, "technologies")),
	}
}

func certificationFromSource(m map[string]any) types.Certification {
	return types.Certification{
		Name:                firstString(m, "name", "title"),
		IssuingOrganization: firstString(m, "issuing_organization", "issuer"),
		IssueDate:           firstString(m, "issue_date", "date"),
		ExpirationDate:      firstString(m, "expiration_date", "expires"),
	}
}

func awardFromSource(m map[string]any) types.Award {
	return types.Award{
		Title:        firstString(m, "title", "name"),
		Issuer:       firstString(m, "issuer", "organization"),
		DateReceived: firstString(m, "date_received", "date"),
		Description:  firstString(m, "description"),
	}
}

// highlightList resolves experience highlights: an array of strings under
// highlights/responsibilities, or a single-element list built from a string
// description.
func highlightList(m map[string]any) []string {
	if v, ok := firstDefined(m, "highlights", "responsibilities"); ok {
		if items, ok := v.([]any); ok {
			out := make([]string, 0, len(items))
			for _, it := range items {
				if s := asString(it); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	if s, ok := m["description"].(string); ok && s != "" {
		return []string{s}
	}
	return []string{}
}

// skillList accepts an array of skill strings or a comma-separated string;
// anything else normalizes to an empty list.
func skillList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, it := range val {
			if s := asString(it); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return []string{}
	}
}

// languageList tolerates both bare strings and {name, proficiency} objects.
func languageList(v any) []types.Language {
	items, ok := v.([]any)
	if !ok {
		return []types.Language{}
	}
	out := make([]types.Language, 0, len(items))
	for _, it := range items {
		switch lang := it.(type) {
		case string:
			if lang != "" {
				out = append(out, types.Language{Name: lang})
			}
		case map[string]any:
			out = append(out, types.Language{
				Name:        firstString(lang, "name", "language"),
				Proficiency: firstString(lang, "proficiency", "level"),
			})
		}
	}
	return out
}

func technologyString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, it := range val {
			if s := asString(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// mapObjects maps a source list field element-wise, skipping non-object
// elements. Absent or mistyped source values normalize to an empty list.
func mapObjects[T any](obj map[string]any, fromSource func(map[string]any) T, keys ...string) []T {
	v, ok := firstDefined(obj, keys...)
	if !ok {
		return []T{}
	}
	items, ok := v.([]any)
	if !ok {
		return []T{}
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, fromSource(m))
		}
	}
	return out
}

// firstDefined implements the first-defined-of resolver shared by every
// alternate-key table: the first candidate key holding a non-nil value wins.
func firstDefined(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func fieldValue(m map[string]any, keys ...string) any {
	v, _ := firstDefined(m, keys...)
	return v
}

func firstString(m map[string]any, keys ...string) string {
	v, ok := firstDefined(m, keys...)
	if !ok {
		return ""
	}
	return asString(v)
}

// asString stringifies scalar JSON values; numeric values show up for
// fields like gpa. Objects and arrays stringify to "".
func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
