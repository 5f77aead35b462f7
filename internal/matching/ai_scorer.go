package matching

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

//go:embed prompt.md
var promptTemplate string

// Extractor is the subset of ai.Extractor the scorer needs.
type Extractor interface {
	ExtractInto(ctx context.Context, req ai.Request, out any) error
}

// AIScorer asks the reasoning model for sub-scores and a justification.
type AIScorer struct {
	extractor Extractor
}

// NewAIScorer returns a scorer backed by extractor.
func NewAIScorer(extractor Extractor) *AIScorer {
	return &AIScorer{extractor: extractor}
}

func (s *AIScorer) Name() string { return "ai" }

func (s *AIScorer) Score(ctx context.Context, p session.Profile, completeness Completeness, job jobs.Job) (Verdict, error) {
	prompt, err := buildPrompt(p, completeness, job)
	if err != nil {
		return Verdict{}, err
	}

	var out schema.MatchVerdictResult
	if err := s.extractor.ExtractInto(ctx, ai.UserText(ai.ModelReasoning, "", prompt, schema.MatchVerdict), &out); err != nil {
		return Verdict{}, err
	}

	return Verdict{
		Breakdown: Breakdown{
			Skills:     out.SkillsScore,
			Experience: out.ExperienceScore,
			Language:   out.LanguageScore,
		},
		Reasoning: strings.TrimSpace(out.Reasoning),
	}, nil
}

// promptProfile is the minimized profile sent for scoring. The name is left out.
type promptProfile struct {
	Education         string              `json:"education,omitempty"`
	ExperienceSummary string              `json:"experience_summary,omitempty"`
	Experiences       []schema.Experience `json:"experiences,omitempty"`
	HardSkills        []string            `json:"hard_skills,omitempty"`
	LanguageLevel     string              `json:"language_level"`
	DesiredTitle      string              `json:"desired_title,omitempty"`
}

type promptJob struct {
	Title          string   `json:"title"`
	City           string   `json:"city,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
	NiceToHave     []string `json:"nice_to_have,omitempty"`
	RequiredYears  int      `json:"required_years"`
	LanguageLevel  string   `json:"language_level"`
}

func buildPrompt(p session.Profile, completeness Completeness, job jobs.Job) (string, error) {
	level := p.LanguageLevel
	if level == "" {
		level = "unknown"
	}
	profileJSON, err := json.MarshalIndent(promptProfile{
		Education:         p.Education,
		ExperienceSummary: p.ExperienceSummary,
		Experiences:       p.Experiences,
		HardSkills:        p.HardSkills,
		LanguageLevel:     level,
		DesiredTitle:      p.DesiredTitle,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	jobJSON, err := json.MarshalIndent(promptJob{
		Title:          job.Title,
		City:           job.City,
		RequiredSkills: job.RequiredSkills,
		NiceToHave:     job.NiceToHave,
		RequiredYears:  job.RequiredYears,
		LanguageLevel:  job.LanguageLevel,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile ({{COMPLETENESS}}):\n{{PROFILE_JSON}}\n\nPosition:\n{{JOB_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{COMPLETENESS}}", string(completeness))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", string(jobJSON))
	return prompt, nil
}
