package merge

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

func newSession(p session.Profile) *session.Session {
	s := session.New("id-1", "acme", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Stage = session.StageCollectingData
	s.Profile = p
	return s
}

func TestConfirmedScalarsSurvive(t *testing.T) {
	offers := []schema.ExtractionResult{
		{Education: "University"},
		{Education: "University", ExperienceSummary: "10 years as manager"},
		{Education: "  ", LanguageLevel: "C2"},
	}

	current := newSession(session.Profile{
		Education:         "Technical High School",
		ExperienceSummary: "3 years driving",
		LanguageLevel:     "B1",
	})

	for _, offer := range offers {
		res := Apply(current, &offer)
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		p := res.Session.Profile
		if p.Education != "Technical High School" || p.ExperienceSummary != "3 years driving" || p.LanguageLevel != "B1" {
			t.Fatalf("confirmed value overwritten by %+v: %+v", offer, p)
		}
		current = res.Session
	}
}

func TestEmptyFieldsAreFilled(t *testing.T) {
	current := newSession(session.Profile{Education: "Technical High School"})

	res := Apply(current, &schema.ExtractionResult{
		Education:         "University",
		ExperienceSummary: "5 years in logistics",
		LanguageLevel:     "fluent",
		HardSkills:        []string{"Forklift", "forklift", " Excel "},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	p := res.Session.Profile
	if p.Education != "Technical High School" {
		t.Fatalf("education overwritten: %q", p.Education)
	}
	if p.ExperienceSummary != "5 years in logistics" || p.LanguageLevel != "C1" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if !reflect.DeepEqual(p.HardSkills, []string{"Forklift", "Excel"}) {
		t.Fatalf("unexpected skills: %v", p.HardSkills)
	}

	want := []string{schema.FieldExperienceSummary, schema.FieldLanguageLevel, schema.FieldHardSkills}
	if !reflect.DeepEqual(res.Adopted, want) {
		t.Fatalf("adopted = %v, want %v", res.Adopted, want)
	}
	if current.Profile.ExperienceSummary != "" {
		t.Fatal("input session must not be modified")
	}
}

func TestSkillsAreNotUnioned(t *testing.T) {
	current := newSession(session.Profile{HardSkills: []string{"welding"}})

	res := Apply(current, &schema.ExtractionResult{HardSkills: []string{"welding", "soldering"}})
	if res.Changed() {
		t.Fatalf("expected no change, adopted %v", res.Adopted)
	}
	if !reflect.DeepEqual(res.Session.Profile.HardSkills, []string{"welding"}) {
		t.Fatalf("skills changed: %v", res.Session.Profile.HardSkills)
	}
}

func TestInvalidMergeIsDiscarded(t *testing.T) {
	current := newSession(session.Profile{Education: "School"})

	res := Apply(current, &schema.ExtractionResult{
		ExperienceSummary: strings.Repeat("x", 2000),
		HardSkills:        []string{"go"},
	})
	if !errors.Is(res.Err, ErrInvalidMerge) {
		t.Fatalf("expected ErrInvalidMerge, got %v", res.Err)
	}
	if res.Session.Profile.ExperienceSummary != "" || len(res.Session.Profile.HardSkills) != 0 {
		t.Fatalf("discarded merge leaked into session: %+v", res.Session.Profile)
	}
	if res.Session.Profile.Education != "School" {
		t.Fatal("pre-merge data lost")
	}
}

func TestAmbiguousLevelIsNotAdopted(t *testing.T) {
	current := newSession(session.Profile{})
	res := Apply(current, &schema.ExtractionResult{LanguageLevel: "fluent or basic"})
	if res.Session.Profile.LanguageLevel != "" || res.Changed() {
		t.Fatalf("ambiguous level adopted: %+v", res.Session.Profile)
	}
}
