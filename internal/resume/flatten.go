package resume

import (
	"strings"

	"resumepilot/internal/types"
)

// Flatten serializes a normalized record into one lowercase text blob.
// The local match scorer checks job-description tokens for substring
// containment against this blob, so only field values are included.
func Flatten(rec *types.ResumeRecord) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	add := func(parts ...string) {
		for _, p := range parts {
			if p == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p)
		}
	}

	add(rec.Personal.Name, rec.Personal.Email, rec.Personal.Phone,
		rec.Personal.Location, rec.Personal.LinkedIn, rec.Personal.Website)
	add(rec.Summary)

	for _, e := range rec.Education {
		add(e.School, e.Degree, e.Field, e.GPA, e.StartDate, e.EndDate, e.Location)
	}
	for _, e := range rec.Experience {
		add(e.Company, e.Position, e.StartDate, e.EndDate, e.Location)
		add(e.Highlights...)
	}
	add(rec.Skills...)
	for _, p := range rec.Projects {
		add(p.Title, p.Description, p.URL, p.Technologies)
	}
	for _, c := range rec.Certifications {
		add(c.Name, c.IssuingOrganization, c.IssueDate, c.ExpirationDate)
	}
	for _, a := range rec.Awards {
		add(a.Title, a.Issuer, a.DateReceived, a.Description)
	}
	for _, l := range rec.Languages {
		add(l.Name, l.Proficiency)
	}

	return strings.ToLower(b.String())
}
