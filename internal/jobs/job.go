// Package jobs loads the open positions of a tenant from its configured source.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/talent-intake/internal/schema"
)

// Job is one open position. Jobs are read-only for the duration of a match run.
type Job struct {
	ID             string   `yaml:"id" json:"id" mapstructure:"id"`
	Title          string   `yaml:"title" json:"title" mapstructure:"title"`
	City           string   `yaml:"city" json:"city,omitempty" mapstructure:"city"`
	Salary         string   `yaml:"salary" json:"salary,omitempty" mapstructure:"salary"`
	RequiredSkills []string `yaml:"required_skills" json:"required_skills,omitempty" mapstructure:"required_skills"`
	RequiredYears  int      `yaml:"required_years" json:"required_years" mapstructure:"required_years"`
	// LanguageLevel is a level on the A1..C2 scale or "any".
	LanguageLevel string   `yaml:"language_level" json:"language_level" mapstructure:"language_level"`
	NiceToHave    []string `yaml:"nice_to_have" json:"nice_to_have,omitempty" mapstructure:"nice_to_have"`
}

// Source returns the ordered job list of a tenant. Implementations re-read
// their backing store on every call.
type Source interface {
	Jobs(ctx context.Context, tenantID string) ([]Job, error)
}

// ErrUnknownTenant is returned by sources that have no list for a tenant.
var ErrUnknownTenant = errors.New("no jobs configured for tenant")

// Normalize trims fields and canonicalises the language requirement.
func (j *Job) Normalize() error {
	j.ID = strings.TrimSpace(j.ID)
	j.Title = strings.TrimSpace(j.Title)
	if j.ID == "" {
		return errors.New("job id is required")
	}
	if j.RequiredYears < 0 {
		return fmt.Errorf("job %s: required years must not be negative", j.ID)
	}

	level := strings.TrimSpace(j.LanguageLevel)
	switch {
	case level == "" || strings.EqualFold(level, schema.LevelAny):
		j.LanguageLevel = schema.LevelAny
	case schema.LevelRank(level) > 0:
		j.LanguageLevel = strings.ToUpper(level)
	default:
		normalized := schema.NormalizeProficiency(level)
		if normalized == "" {
			return fmt.Errorf("job %s: unknown language level %q", j.ID, j.LanguageLevel)
		}
		j.LanguageLevel = normalized
	}

	j.RequiredSkills = trimAll(j.RequiredSkills)
	j.NiceToHave = trimAll(j.NiceToHave)
	return nil
}

// NormalizeAll normalizes jobs in place, dropping none: the first invalid job fails the list.
func NormalizeAll(list []Job) ([]Job, error) {
	seen := make(map[string]bool, len(list))
	for i := range list {
		if err := list[i].Normalize(); err != nil {
			return nil, err
		}
		if seen[list[i].ID] {
			return nil, fmt.Errorf("duplicate job id %q", list[i].ID)
		}
		seen[list[i].ID] = true
	}
	return list, nil
}

func trimAll(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Mux routes each tenant to a named source.
type Mux struct {
	sources  map[string]Source
	byTenant map[string]string
	fallback string
}

// NewMux returns a router. Tenants without a route use the fallback source name.
func NewMux(sources map[string]Source, byTenant map[string]string, fallback string) *Mux {
	return &Mux{sources: sources, byTenant: byTenant, fallback: fallback}
}

func (m *Mux) Jobs(ctx context.Context, tenantID string) ([]Job, error) {
	name, ok := m.byTenant[tenantID]
	if !ok || name == "" {
		name = m.fallback
	}
	src, ok := m.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no source %q", ErrUnknownTenant, tenantID, name)
	}
	return src.Jobs(ctx, tenantID)
}
