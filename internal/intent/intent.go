// Package intent classifies a candidate's answer to a yes/no question.
package intent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/schema"
	"go.uber.org/zap"
)

// Intent is the tagged answer to a consent or confirmation question.
type Intent int

const (
	Unclear Intent = iota
	Affirm
	Refuse
)

func (i Intent) String() string {
	switch i {
	case Affirm:
		return schema.IntentAffirm
	case Refuse:
		return schema.IntentRefuse
	default:
		return schema.IntentUnclear
	}
}

// Parse maps a label onto an Intent; unknown labels are Unclear.
func Parse(label string) Intent {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case schema.IntentAffirm:
		return Affirm
	case schema.IntentRefuse:
		return Refuse
	default:
		return Unclear
	}
}

// Classifier decides the intent of a message.
type Classifier interface {
	Classify(ctx context.Context, question, text string) Intent
}

// Extractor is the subset of ai.Extractor the classifier needs.
type Extractor interface {
	ExtractInto(ctx context.Context, req ai.Request, out any) error
}

const systemPrompt = `You classify a job candidate's reply to a yes/no question.
Answer "affirm" when the reply clearly agrees, "refuse" when it clearly declines,
and "unclear" for anything else, including questions, mixed answers and unrelated text.
The reply may be in any language.`

// ModelClassifier asks the inference service and falls back to keywords on failure.
type ModelClassifier struct {
	extractor Extractor
	fallback  Classifier
	logger    *zap.Logger
}

// NewModelClassifier returns a classifier using extractor, or only the keyword
// fallback when extractor is nil.
func NewModelClassifier(extractor Extractor, log *zap.Logger) *ModelClassifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModelClassifier{extractor: extractor, fallback: KeywordFallback{}, logger: log}
}

// Classify never fails: errors from the model fall back to keyword matching.
func (c *ModelClassifier) Classify(ctx context.Context, question, text string) Intent {
	if strings.TrimSpace(text) == "" {
		return Unclear
	}
	if c.extractor == nil {
		return c.fallback.Classify(ctx, question, text)
	}

	prompt := fmt.Sprintf("Question: %s\nReply: %s", question, text)
	var out schema.IntentResult
	if err := c.extractor.ExtractInto(ctx, ai.UserText(ai.ModelFast, systemPrompt, prompt, schema.Intent), &out); err != nil {
		got := c.fallback.Classify(ctx, question, text)
		c.logger.Warn("intent classification failed, using keyword fallback",
			zap.Error(err), zap.Stringer("intent", got))
		return got
	}
	return Parse(out.Intent)
}

var (
	affirmWords = []string{
		"yes", "yeah", "yep", "sure", "agree", "i agree", "accept", "i accept",
		"of course", "go ahead", "correct", "confirm", "that's right",
		"sí", "si", "claro", "acepto", "de acuerdo", "vale", "correcto", "confirmo", "por supuesto",
	}
	// ambiguousWords affirm only when they are the whole reply.
	ambiguousWords = []string{"ok", "okay", "right"}
	refuseWords    = []string{
		"no", "nope", "nah", "don't", "do not", "decline", "refuse", "not agree", "disagree", "stop",
		"never", "wrong", "incorrect", "not now", "don't agree", "do not agree", "not correct",
		"not accept", "don't accept", "do not accept", "rather not", "i'd rather not",
		"no acepto", "no estoy de acuerdo", "rechazo", "nunca", "incorrecto", "no es correcto", "tampoco",
	}
	negators = map[string]bool{"not": true, "no": true, "never": true, "nor": true, "nunca": true, "tampoco": true}

	refuseRe = wordsRegexp(refuseWords)
	tokenRe  = regexp.MustCompile(`[\p{L}']+`)

	affirmPhrases    = phrases(affirmWords)
	ambiguousPhrases = phrases(ambiguousWords)
)

// negationWindow is how many words before an affirm term are checked for a negator.
const negationWindow = 2

// Longer phrases come first so "no acepto" wins over "no".
func wordsRegexp(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, 0, len(sorted))
	for _, w := range sorted {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)(^|[^\p{L}'])(` + strings.Join(quoted, "|") + `)($|[^\p{L}'])`)
}

func phrases(words []string) [][]string {
	out := make([][]string, 0, len(words))
	for _, w := range words {
		out = append(out, strings.Fields(w))
	}
	return out
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

func isNegator(token string) bool {
	return negators[token] || strings.HasSuffix(token, "n't")
}

// scan reports whether any phrase occurs in tokens without a negator in the
// preceding window, and whether any occurrence was negated.
func scan(tokens []string, list [][]string) (plain, negated bool) {
	for i := range tokens {
		for _, p := range list {
			if i+len(p) > len(tokens) || !equalTokens(tokens[i:i+len(p)], p) {
				continue
			}
			isNegated := false
			for j := max(0, i-negationWindow); j < i; j++ {
				if isNegator(tokens[j]) {
					isNegated = true
				}
			}
			if isNegated {
				negated = true
			} else {
				plain = true
			}
		}
	}
	return plain, negated
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// KeywordFallback is a conservative word-list classifier. It affirms only when
// an affirm word is present with no refuse word and no negated affirm word;
// "ok", "okay" and "right" count only as the whole reply. Anything mixed is Unclear.
type KeywordFallback struct{}

func (KeywordFallback) Classify(_ context.Context, _ string, text string) Intent {
	text = strings.ReplaceAll(text, "’", "'")
	refuse := refuseRe.MatchString(text)

	// Refusal phrases may embed affirm words ("no acepto", "don't agree").
	rest := tokenize(refuseRe.ReplaceAllString(text, " "))
	affirm, negated := scan(rest, affirmPhrases)
	ambiguous, ambiguousNegated := scan(rest, ambiguousPhrases)
	negated = negated || ambiguousNegated
	if ambiguous && len(tokenize(text)) == 1 {
		affirm = true
	}

	switch {
	case affirm && !refuse && !negated:
		return Affirm
	case refuse && !affirm:
		return Refuse
	default:
		return Unclear
	}
}
