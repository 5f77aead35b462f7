package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateCoercesMisShapedStrings(t *testing.T) {
	in := map[string]any{
		"name":               "Ana",
		"education":          []any{"Technical High School", "Welding course"},
		"experience_summary": map[string]any{"years": 5, "field": "logistics"},
		"hard_skills":        "forklift, excel; forklift",
		"language_level":     "fluent",
		"desired_title":      nil,
	}

	rec, err := ProfileExtraction.Validate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rec[FieldEducation]; got != "Technical High School, Welding course" {
		t.Fatalf("unexpected education: %#v", got)
	}
	if got := rec[FieldExperienceSummary]; got != "field: logistics; years: 5" {
		t.Fatalf("unexpected experience summary: %#v", got)
	}
	if got := rec[FieldHardSkills]; !reflect.DeepEqual(got, []string{"forklift", "excel"}) {
		t.Fatalf("unexpected skills: %#v", got)
	}
	if got := rec[FieldLanguageLevel]; got != "C1" {
		t.Fatalf("expected C1, got %#v", got)
	}
	if _, ok := rec[FieldConfidence]; ok {
		t.Fatalf("optional absent field must stay absent")
	}
}

func TestValidateNullsAmbiguousValues(t *testing.T) {
	rec, err := ProfileExtraction.Validate(map[string]any{
		"language_level": "fluent English, basic French",
		"education":      "N/A",
		"experiences":    "three jobs",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{FieldLanguageLevel, FieldEducation, FieldExperiences, FieldHardSkills} {
		if rec[key] != nil {
			t.Fatalf("expected %s to be null, got %#v", key, rec[key])
		}
	}
}

func TestValidateToleratesKeyStyles(t *testing.T) {
	rec, err := Qualification.Validate(map[string]any{
		"Availability":        "mornings",
		"accommodationNeeded": "no",
		"SENTIMENT":           "Positive",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec["availability"] != "mornings" || rec["accommodation_needed"] != false || rec["sentiment"] != SentimentPositive {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestValidateRequiredField(t *testing.T) {
	_, err := Intent.Validate(map[string]any{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "intent" {
		t.Fatalf("expected field error for intent, got %v", err)
	}
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name    string
		score   any
		want    float64
		wantErr bool
	}{
		{name: "float", score: 72.5, want: 72.5},
		{name: "numeric string", score: "64", want: 64},
		{name: "string with unit", score: "80 points", want: 80},
		{name: "clamped", score: 130.0, want: 100},
		{name: "range is ambiguous", score: "60-70", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := MatchVerdict.Validate(map[string]any{
				"skills_score":     tt.score,
				"experience_score": 50,
				"language_score":   50,
				"reasoning":        "ok",
			})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec["skills_score"] != tt.want {
				t.Fatalf("expected %v, got %#v", tt.want, rec["skills_score"])
			}
		})
	}
}

func TestStrictSchemaRejectsInsteadOfCoercing(t *testing.T) {
	_, err := SessionProfile.Validate(map[string]any{
		FieldLanguageLevel: "fluent",
	})
	if err == nil {
		t.Fatal("strict schema must reject an unnormalised level")
	}

	rec, err := SessionProfile.Validate(map[string]any{
		FieldEducation:     "University",
		FieldHardSkills:    []string{"go"},
		FieldLanguageLevel: "b2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec[FieldLanguageLevel] != "B2" {
		t.Fatalf("expected B2, got %#v", rec[FieldLanguageLevel])
	}
}

func TestObjectListDropsInvalidItems(t *testing.T) {
	rec, err := DocumentExtraction.Validate(map[string]any{
		"experiences": []any{
			map[string]any{"company": "Acme", "role": "Driver", "years": "3 years"},
			"not an object",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, ok := rec[FieldExperiences].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one experience, got %#v", rec[FieldExperiences])
	}
	if _, ok := rec[FieldName]; ok {
		t.Fatal("document schema must not carry a name")
	}
}

func TestDecodeExtractionResult(t *testing.T) {
	rec, err := ProfileExtraction.Validate(map[string]any{
		"education":      "University",
		"hard_skills":    []any{"Go", "SQL"},
		"language_level": "B2",
		"experiences": []any{
			map[string]any{"company": "Acme", "years": 2.5},
		},
		"confidence": "85",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out ExtractionResult
	if err := Decode(rec, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Education != "University" || out.LanguageLevel != "B2" || out.Confidence != 85 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(out.Experiences) != 1 || out.Experiences[0].Company != "Acme" || out.Experiences[0].Years != 2.5 {
		t.Fatalf("unexpected experiences: %+v", out.Experiences)
	}
	if out.Empty() {
		t.Fatal("result must not be empty")
	}
}
