// Package matching scores a candidate profile against a tenant's jobs.
package matching

import (
	"context"
	"math"

	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/session"
)

// Weights of the sub-scores in the final score.
const (
	SkillsWeight     = 0.40
	ExperienceWeight = 0.35
	LanguageWeight   = 0.25
)

// UnknownLanguageCap bounds the language sub-score when the candidate's level is unknown.
const UnknownLanguageCap = 50.0

// Breakdown holds the per-factor sub-scores, each in [0,100].
type Breakdown struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Language   float64 `json:"language"`
}

// Weighted combines the sub-scores into a single score in [0,100].
func (b Breakdown) Weighted() float64 {
	score := SkillsWeight*b.Skills + ExperienceWeight*b.Experience + LanguageWeight*b.Language
	return round1(clamp(score))
}

func (b Breakdown) clamped() Breakdown {
	return Breakdown{Skills: clamp(b.Skills), Experience: clamp(b.Experience), Language: clamp(b.Language)}
}

// Verdict is what a scorer says about one job.
type Verdict struct {
	Breakdown Breakdown
	Reasoning string
}

// JobMatch is a scored job.
type JobMatch struct {
	Job          jobs.Job  `json:"job"`
	Score        float64   `json:"score"`
	Breakdown    Breakdown `json:"breakdown"`
	Reasoning    string    `json:"reasoning"`
	BiasFlag     bool      `json:"bias_flag,omitempty"`
	FlaggedTerms []string  `json:"flagged_terms,omitempty"`

	// position in the tenant's job list, used to keep ties in source order.
	position int
}

// Result is the outcome of one matching run.
type Result struct {
	Matches      []JobMatch
	Completeness Completeness
	Scored       int
	Failed       int
}

// Scorer rates one job for a candidate.
type Scorer interface {
	Score(ctx context.Context, profile session.Profile, completeness Completeness, job jobs.Job) (Verdict, error)
	Name() string
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
