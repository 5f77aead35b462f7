// Package merge reconciles extracted profile data into a session.
//
// Only empty fields are filled. A scalar that already holds a value is never
// replaced, and set-valued fields (skills, experience entries) are adopted
// whole only while the session's set is still empty.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

// ErrInvalidMerge is returned when the merged profile fails re-validation.
var ErrInvalidMerge = errors.New("merged profile is invalid")

// Result is the outcome of a merge.
type Result struct {
	// Session is the merged session, or an unchanged copy of the input when Err is set.
	Session *session.Session
	// Adopted lists the fields filled by this merge.
	Adopted []string
	// Err is non-nil when the merge was discarded.
	Err error
}

// Changed reports whether any field was adopted.
func (r Result) Changed() bool { return r.Err == nil && len(r.Adopted) > 0 }

// Apply merges extracted into a copy of current. current is never modified.
func Apply(current *session.Session, extracted *schema.ExtractionResult) Result {
	merged := current.Clone()
	if extracted == nil {
		return Result{Session: merged}
	}

	p := &merged.Profile
	var adopted []string

	adoptString := func(field string, dst *string, value string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.TrimSpace(*dst) != "" {
			return
		}
		*dst = value
		adopted = append(adopted, field)
	}

	adoptString(schema.FieldName, &p.Name, extracted.Name)
	adoptString(schema.FieldEducation, &p.Education, extracted.Education)
	adoptString(schema.FieldExperienceSummary, &p.ExperienceSummary, extracted.ExperienceSummary)
	adoptString(schema.FieldDesiredTitle, &p.DesiredTitle, extracted.DesiredTitle)

	level := extracted.LanguageLevel
	if schema.LevelRank(level) == 0 {
		level = schema.NormalizeProficiency(level)
	}
	adoptString(schema.FieldLanguageLevel, &p.LanguageLevel, strings.ToUpper(level))

	if len(p.HardSkills) == 0 {
		if skills := cleanSkills(extracted.HardSkills); len(skills) > 0 {
			p.HardSkills = skills
			adopted = append(adopted, schema.FieldHardSkills)
		}
	}

	if len(p.Experiences) == 0 && len(extracted.Experiences) > 0 {
		p.Experiences = append([]schema.Experience(nil), extracted.Experiences...)
		adopted = append(adopted, schema.FieldExperiences)
	}

	if len(adopted) == 0 {
		return Result{Session: merged}
	}

	if _, err := schema.SessionProfile.Validate(p.Record()); err != nil {
		return Result{
			Session: current.Clone(),
			Err:     fmt.Errorf("%w: %v", ErrInvalidMerge, err),
		}
	}

	return Result{Session: merged, Adopted: adopted}
}

func cleanSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
