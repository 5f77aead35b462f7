package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Experience is one position held by the candidate.
type Experience struct {
	Company     string  `mapstructure:"company" json:"company,omitempty"`
	Role        string  `mapstructure:"role" json:"role,omitempty"`
	Years       float64 `mapstructure:"years" json:"years,omitempty"`
	Description string  `mapstructure:"description" json:"description,omitempty"`
}

// ExtractionResult is a partial profile. Empty values mean "not found".
type ExtractionResult struct {
	Name              string       `mapstructure:"name"`
	Education         string       `mapstructure:"education"`
	ExperienceSummary string       `mapstructure:"experience_summary"`
	Experiences       []Experience `mapstructure:"experiences"`
	HardSkills        []string     `mapstructure:"hard_skills"`
	LanguageLevel     string       `mapstructure:"language_level"`
	DesiredTitle      string       `mapstructure:"desired_title"`
	Confidence        float64      `mapstructure:"confidence"`
	Rationale         string       `mapstructure:"rationale"`
}

// Empty reports whether no profile field was extracted.
func (r *ExtractionResult) Empty() bool {
	return r == nil || (r.Name == "" && r.Education == "" && r.ExperienceSummary == "" &&
		len(r.Experiences) == 0 && len(r.HardSkills) == 0 && r.LanguageLevel == "" && r.DesiredTitle == "")
}

// QualificationResult is the decoded Qualification record.
type QualificationResult struct {
	Availability         string `mapstructure:"availability"`
	AccommodationNeeded  bool   `mapstructure:"accommodation_needed"`
	AccommodationDetails string `mapstructure:"accommodation_details"`
	Sentiment            string `mapstructure:"sentiment"`
}

// MatchVerdictResult is the decoded MatchVerdict record.
type MatchVerdictResult struct {
	SkillsScore     float64 `mapstructure:"skills_score"`
	ExperienceScore float64 `mapstructure:"experience_score"`
	LanguageScore   float64 `mapstructure:"language_score"`
	Reasoning       string  `mapstructure:"reasoning"`
}

// IntentResult is the decoded Intent record.
type IntentResult struct {
	Intent string `mapstructure:"intent"`
}

// Decode copies a validated record into out, a pointer to one of the result types.
func Decode(rec Record, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("decode %T: %w", out, err)
	}
	return nil
}
