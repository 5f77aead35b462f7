package schema

import (
	"regexp"
	"sort"
	"strings"
)

// Levels is the six-level proficiency scale, lowest first.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// LevelAny marks a job that accepts any proficiency.
const LevelAny = "any"

var descriptors = map[string]string{
	"beginner":           "A1",
	"starter":            "A1",
	"basic":              "A2",
	"elementary":         "A2",
	"pre-intermediate":   "A2",
	"pre intermediate":   "A2",
	"intermediate":       "B1",
	"conversational":     "B1",
	"upper intermediate": "B2",
	"upper-intermediate": "B2",
	"advanced":           "C1",
	"fluent":             "C1",
	"native":             "C2",
	"bilingual":          "C2",
	"mother tongue":      "C2",
	"proficient":         "C2",
	"principiante":       "A1",
	"básico":             "A2",
	"basico":             "A2",
	"intermedio":         "B1",
	"avanzado":           "C1",
	"fluido":             "C1",
	"nativo":             "C2",
	"bilingüe":           "C2",
	"bilingue":           "C2",
}

type descriptorPattern struct {
	level string
	re    *regexp.Regexp
}

var (
	levelCodeRe = regexp.MustCompile(`(?i)\b([abc][12])\b`)
	patterns    = compileDescriptors()
)

// Longest first, so "upper intermediate" is consumed before "intermediate".
func compileDescriptors() []descriptorPattern {
	keys := make([]string, 0, len(descriptors))
	for p := range descriptors {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := make([]descriptorPattern, 0, len(keys))
	for _, phrase := range keys {
		// \b does not treat accented letters as word characters.
		re := regexp.MustCompile(`(^|[^\p{L}])` + regexp.QuoteMeta(phrase) + `($|[^\p{L}])`)
		out = append(out, descriptorPattern{level: descriptors[phrase], re: re})
	}
	return out
}

// NormalizeProficiency maps a level code or a free-text descriptor onto the
// scale. Text naming several distinct levels, or none, returns "".
func NormalizeProficiency(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	found := make(map[string]bool)
	for _, m := range levelCodeRe.FindAllStringSubmatch(text, -1) {
		found[strings.ToUpper(m[1])] = true
	}
	text = levelCodeRe.ReplaceAllString(text, " ")

	for _, p := range patterns {
		if p.re.MatchString(text) {
			found[p.level] = true
			text = p.re.ReplaceAllString(text, " ")
		}
	}

	if len(found) != 1 {
		return ""
	}
	for level := range found {
		return level
	}
	return ""
}

// LevelRank returns the position of level on the scale (1..6), or 0 when the
// level is unknown.
func LevelRank(level string) int {
	level = strings.ToUpper(strings.TrimSpace(level))
	for i, l := range Levels {
		if l == level {
			return i + 1
		}
	}
	return 0
}
