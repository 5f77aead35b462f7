package matching

import (
	"regexp"
	"strings"
)

// DefaultTerms are words that must not appear in a match justification:
// age, gender, ethnicity, religion, health, family status and appearance.
var DefaultTerms = []string{
	// age
	"age", "aged", "years old", "young", "younger", "elderly", "older", "edad", "joven", "mayor de edad",
	// gender
	"gender", "male", "female", "man", "woman", "men", "women", "pregnant", "pregnancy", "maternity",
	"género", "sexo", "hombre", "mujer", "embarazada", "embarazo",
	// ethnicity
	"ethnicity", "ethnic", "race", "racial", "skin colour", "skin color", "etnia", "raza",
	// religion
	"religion", "religious", "muslim", "christian", "catholic", "jewish", "hindu", "buddhist",
	"religión", "religioso", "religiosa",
	// health
	"health", "disability", "disabled", "illness", "sick", "medical condition", "handicap",
	"salud", "discapacidad", "enfermedad",
	// family status
	"married", "marital status", "divorced", "widowed", "children", "kids", "spouse", "husband", "wife",
	"casado", "casada", "soltero", "soltera", "hijos", "estado civil",
	// appearance
	"appearance", "attractive", "good-looking", "overweight", "apariencia", "aspecto físico",
}

// Lexicon finds forbidden terms in free text, matching whole words only.
type Lexicon struct {
	terms    []string
	patterns []*regexp.Regexp
}

// NewLexicon compiles terms. Empty terms are ignored.
func NewLexicon(terms ...string) *Lexicon {
	l := &Lexicon{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		l.terms = append(l.terms, term)
		l.patterns = append(l.patterns,
			regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])`+regexp.QuoteMeta(term)+`(?:$|[^\p{L}\p{N}])`))
	}
	return l
}

// DefaultLexicon returns a lexicon of DefaultTerms.
func DefaultLexicon() *Lexicon {
	return NewLexicon(DefaultTerms...)
}

// Scan returns every term found in text, in lexicon order.
func (l *Lexicon) Scan(text string) []string {
	if l == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	var found []string
	for i, re := range l.patterns {
		if re.MatchString(text) {
			found = append(found, l.terms[i])
		}
	}
	return found
}
