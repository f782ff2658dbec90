package resume

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"resumepilot/internal/errors"
	"resumepilot/internal/types"
)

func fullExample() map[string]any {
	raw := `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "555-0100",
		"location": "Portland, OR",
		"linkedin": "https://linkedin.com/in/janedoe",
		"website": "https://janedoe.dev",
		"summary": "Backend engineer with a focus on data pipelines.",
		"education": [
			{"school": "State University", "degree": "BSc", "field": "Computer Science",
			 "gpa": 3.8, "start_date": "2014", "end_date": "2018", "location": "Portland"}
		],
		"experience": [
			{"company": "Acme", "position": "Engineer", "start_date": "2018",
			 "end_date": "2023", "location": "Remote",
			 "highlights": ["Built ingestion service", "Cut latency 40%"]}
		],
		"skills": ["Python", "SQL", "Go"],
		"projects": [
			{"title": "Pipeline", "description": "ETL tool", "url": "https://example.com",
			 "technologies": ["Go", "Postgres"]}
		],
		"certifications": [
			{"name": "Cloud Cert", "issuing_organization": "Vendor",
			 "issue_date": "2021", "expiration_date": "2024"}
		],
		"awards": [
			{"title": "Hackathon Winner", "issuer": "Acme", "date_received": "2020",
			 "description": "First place"}
		],
		"languages": [
			{"name": "English", "proficiency": "Native"},
			"Spanish"
		]
	}`
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		panic(err)
	}
	return m
}

func TestNormalizeScenario(t *testing.T) {
	rec, err := Normalize(map[string]any{
		"full_name": "Jane Doe",
		"skills":    "Python, SQL, Go",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec == nil {
		t.Fatal("Normalize() returned nil record for object input")
	}

	if rec.Personal.Name != "Jane Doe" {
		t.Errorf("Personal.Name = %q, want %q", rec.Personal.Name, "Jane Doe")
	}
	wantSkills := []string{"Python", "SQL", "Go"}
	if len(rec.Skills) != len(wantSkills) {
		t.Fatalf("Skills = %v, want %v", rec.Skills, wantSkills)
	}
	for i, s := range wantSkills {
		if rec.Skills[i] != s {
			t.Errorf("Skills[%d] = %q, want %q", i, rec.Skills[i], s)
		}
	}
	if len(rec.Experience) != 0 {
		t.Errorf("Experience = %v, want empty", rec.Experience)
	}
}

func TestNormalizeAlternateKeyPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		get   func(rec *types.ResumeRecord) string
	}{
		{
			name: "name wins over full_name",
			input: map[string]any{
				"name":      "Primary",
				"full_name": "Secondary",
			},
			get: func(rec *types.ResumeRecord) string { return rec.Personal.Name },
		},
		{
			name: "phone wins over phone_number",
			input: map[string]any{
				"phone":        "Primary",
				"phone_number": "Secondary",
			},
			get: func(rec *types.ResumeRecord) string { return rec.Personal.Phone },
		},
		{
			name: "location wins over address",
			input: map[string]any{
				"location": "Primary",
				"address":  "Secondary",
			},
			get: func(rec *types.ResumeRecord) string { return rec.Personal.Location },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got := tt.get(rec); got != "Primary" {
				t.Errorf("first listed key should win, got %q", got)
			}
		})
	}
}

// Removing arbitrary subsets of source keys must never produce nil leaves.
func TestNormalizeTotalDefaults(t *testing.T) {
	keys := make([]string, 0)
	for k := range fullExample() {
		keys = append(keys, k)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		input := fullExample()
		for _, k := range keys {
			if rng.Intn(2) == 0 {
				delete(input, k)
			}
		}

		rec, err := Normalize(input)
		if err != nil {
			t.Fatalf("trial %d: Normalize() error = %v", trial, err)
		}
		if rec == nil {
			t.Fatalf("trial %d: nil record for object input", trial)
		}

		if rec.Education == nil || rec.Experience == nil || rec.Skills == nil ||
			rec.Projects == nil || rec.Certifications == nil ||
			rec.Awards == nil || rec.Languages == nil {
			t.Fatalf("trial %d: record has nil list field: %+v", trial, rec)
		}
		for _, e := range rec.Experience {
			if e.Highlights == nil {
				t.Fatalf("trial %d: nil highlights", trial)
			}
		}
	}
}

func TestNormalizeInputShapes(t *testing.T) {
	t.Run("string containing JSON is parsed", func(t *testing.T) {
		rec, err := Normalize(`{"name": "Jane Doe"}`)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if rec.Personal.Name != "Jane Doe" {
			t.Errorf("Personal.Name = %q, want %q", rec.Personal.Name, "Jane Doe")
		}
	})

	t.Run("unparseable string is a malformed response", func(t *testing.T) {
		_, err := Normalize(`{"name": `)
		if err == nil {
			t.Fatal("Normalize() error = nil, want MALFORMED_RESPONSE")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok {
			t.Fatalf("error type = %T, want *errors.AppError", err)
		}
		if appErr.Code != errors.ErrCodeMalformedResponse {
			t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeMalformedResponse)
		}
	})

	t.Run("non-object top level yields nil without error", func(t *testing.T) {
		for _, input := range []any{[]any{"a"}, `["a", "b"]`, 42.0, true, nil} {
			rec, err := Normalize(input)
			if err != nil {
				t.Errorf("input %v: unexpected error %v", input, err)
			}
			if rec != nil {
				t.Errorf("input %v: record = %+v, want nil", input, rec)
			}
		}
	})
}

func TestSkillList(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"array kept as-is", []any{"Go", "SQL"}, []string{"Go", "SQL"}},
		{"comma string split and trimmed", "Python,  SQL , Go", []string{"Python", "SQL", "Go"}},
		{"trailing comma dropped", "Python,", []string{"Python"}},
		{"number normalizes to empty", 7.0, []string{}},
		{"nil normalizes to empty", nil, []string{}},
		{"object normalizes to empty", map[string]any{"a": 1}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skillList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("skillList() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("skillList()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHighlightFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  []string
	}{
		{
			"highlights preferred",
			map[string]any{"highlights": []any{"a"}, "responsibilities": []any{"b"}},
			[]string{"a"},
		},
		{
			"responsibilities fallback",
			map[string]any{"responsibilities": []any{"b"}},
			[]string{"b"},
		},
		{
			"string description becomes single highlight",
			map[string]any{"description": "did things"},
			[]string{"did things"},
		},
		{
			"nothing usable yields empty list",
			map[string]any{"description": 3.0},
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := highlightList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("highlightList() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("highlightList()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLanguageShapes(t *testing.T) {
	rec, err := Normalize(map[string]any{
		"languages": []any{
			"Spanish",
			map[string]any{"language": "German", "level": "B2"},
		},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(rec.Languages) != 2 {
		t.Fatalf("Languages = %v, want 2 entries", rec.Languages)
	}
	if rec.Languages[0].Name != "Spanish" {
		t.Errorf("Languages[0].Name = %q, want %q", rec.Languages[0].Name, "Spanish")
	}
	if rec.Languages[1].Name != "German" || rec.Languages[1].Proficiency != "B2" {
		t.Errorf("Languages[1] = %+v, want German/B2", rec.Languages[1])
	}
}

func TestFlatten(t *testing.T) {
	rec, err := Normalize(fullExample())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	blob := Flatten(rec)
	if blob != strings.ToLower(blob) {
		t.Error("Flatten() output is not lowercase")
	}
	for _, want := range []string{"jane doe", "python", "ingestion", "spanish"} {
		if !strings.Contains(blob, want) {
			t.Errorf("Flatten() missing %q", want)
		}
	}
	if strings.Contains(blob, "highlights") {
		t.Error("Flatten() should contain values only, found a field name")
	}

	if Flatten(nil) != "" {
		t.Error("Flatten(nil) should be empty")
	}
}

func BenchmarkNormalize(b *testing.B) {
	input := fullExample()
	for b.Loop() {
		if _, err := Normalize(input); err != nil {
			b.Fatal(err)
		}
	}
}
