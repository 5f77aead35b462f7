package matching

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

const (
	requiredSkillWeight = 2.0
	niceSkillWeight     = 1.0
	relatedSkillCredit  = 0.5
)

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "from": true,
	"of": true, "in": true, "on": true, "de": true, "del": true, "la": true,
	"el": true, "los": true, "las": true, "y": true, "en": true, "con": true,
}

var yearsRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*\+?\s*(?:years?|yrs?|años?|anos?)`)

// RubricScorer scores jobs without calling a model.
type RubricScorer struct{}

func (RubricScorer) Name() string { return "rubric" }

func (RubricScorer) Score(_ context.Context, p session.Profile, _ Completeness, job jobs.Job) (Verdict, error) {
	skills, matched, missing := skillsScore(p, job)
	years, known := candidateYears(p)
	experience := experienceScore(p, years, known, job.RequiredYears)
	language := languageScore(p.LanguageLevel, job.LanguageLevel)

	var reasons []string
	if total := len(job.RequiredSkills); total > 0 {
		reasons = append(reasons, fmt.Sprintf("%d of %d required skills covered", total-missing, total))
	}
	if len(matched) > 0 {
		reasons = append(reasons, "matching: "+strings.Join(matched, ", "))
	}
	switch {
	case job.RequiredYears == 0:
	case known:
		reasons = append(reasons, fmt.Sprintf("%s years of experience for %d required", formatYears(years), job.RequiredYears))
	default:
		reasons = append(reasons, fmt.Sprintf("experience not stated for %d required years", job.RequiredYears))
	}
	if job.LanguageLevel != schema.LevelAny {
		level := p.LanguageLevel
		if level == "" {
			level = "unknown"
		}
		reasons = append(reasons, fmt.Sprintf("language %s for %s required", level, job.LanguageLevel))
	}

	return Verdict{
		Breakdown: Breakdown{Skills: skills, Experience: experience, Language: language},
		Reasoning: strings.Join(reasons, "; "),
	}, nil
}

// skillsScore credits exact skill matches fully and keyword overlaps with the
// candidate's experience partially. Required skills weigh more than nice-to-have.
func skillsScore(p session.Profile, job jobs.Job) (score float64, matched []string, missingRequired int) {
	if len(job.RequiredSkills) == 0 && len(job.NiceToHave) == 0 {
		return 100, nil, 0
	}

	exact := make(map[string]bool, len(p.HardSkills))
	for _, s := range p.HardSkills {
		exact[normalizeSkill(s)] = true
	}
	related := keywords(strings.Join(p.HardSkills, " "), p.ExperienceSummary, experienceText(p.Experiences))

	var earned, possible float64
	credit := func(skill string, weight float64) float64 {
		possible += weight
		switch {
		case exact[normalizeSkill(skill)]:
			matched = append(matched, skill)
			return weight
		case overlaps(keywords(skill), related):
			matched = append(matched, skill)
			return weight * relatedSkillCredit
		default:
			return 0
		}
	}

	for _, s := range job.RequiredSkills {
		got := credit(s, requiredSkillWeight)
		if got == 0 {
			missingRequired++
		}
		earned += got
	}
	for _, s := range job.NiceToHave {
		earned += credit(s, niceSkillWeight)
	}
	return round1(earned / possible * 100), matched, missingRequired
}

// experienceScore compares stated years with the requirement. Experience the
// candidate never described scores low even when no years are required.
func experienceScore(p session.Profile, years float64, known bool, required int) float64 {
	described := p.Has(schema.FieldExperienceSummary) || p.Has(schema.FieldExperiences)

	switch {
	case required == 0 && described:
		return 100
	case required == 0:
		return 60
	case !described:
		return 0
	case !known:
		return 40
	default:
		return round1(clamp(years / float64(required) * 100))
	}
}

// languageScore compares levels on the ordinal scale. An unknown candidate
// level is never treated as sufficient.
func languageScore(candidate, required string) float64 {
	if required == "" || required == schema.LevelAny {
		return 100
	}
	have := schema.LevelRank(candidate)
	if have == 0 {
		return UnknownLanguageCap
	}

	switch gap := schema.LevelRank(required) - have; {
	case gap <= 0:
		return 100
	case gap == 1:
		return 60
	case gap == 2:
		return 30
	default:
		return 0
	}
}

// candidateYears sums structured experience, falling back to the largest
// "N years" mention in the summary.
func candidateYears(p session.Profile) (float64, bool) {
	var total float64
	for _, e := range p.Experiences {
		total += e.Years
	}
	if total > 0 {
		return total, true
	}

	best, found := 0.0, false
	for _, m := range yearsRe.FindAllStringSubmatch(p.ExperienceSummary, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

func experienceText(list []schema.Experience) string {
	parts := make([]string, 0, len(list)*2)
	for _, e := range list {
		parts = append(parts, e.Role, e.Description)
	}
	return strings.Join(parts, " ")
}

func normalizeSkill(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// keywords tokenizes text into lowercase words of at least two runes,
// keeping + # . so "c++" and "node.js" survive.
func keywords(texts ...string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !stopWords[w] {
			kw[w] = true
		}
	}
	for _, text := range texts {
		for _, r := range strings.ToLower(text) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
				word.WriteRune(r)
			} else {
				flush()
			}
		}
		flush()
	}
	return kw
}

func overlaps(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

func formatYears(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
