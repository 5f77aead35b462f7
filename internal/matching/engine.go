package matching

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

const defaultConcurrency = 4

// Engine scores every job of a tenant and keeps the best matches.
type Engine struct {
	scorer      Scorer
	lexicon     *Lexicon
	filters     []Filter
	logger      *zap.Logger
	concurrency int
	jobTimeout  time.Duration
}

// Option customises an Engine.
type Option func(*Engine)

// WithFilters replaces the default post-scoring filters.
func WithFilters(filters ...Filter) Option {
	return func(e *Engine) { e.filters = filters }
}

// WithConcurrency bounds the number of jobs scored at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithJobTimeout bounds the time spent scoring a single job.
func WithJobTimeout(d time.Duration) Option {
	return func(e *Engine) { e.jobTimeout = d }
}

// NewEngine returns an engine using scorer. A nil lexicon uses DefaultLexicon.
func NewEngine(scorer Scorer, lexicon *Lexicon, log *zap.Logger, opts ...Option) *Engine {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		scorer:      scorer,
		lexicon:     lexicon,
		filters:     DefaultFilters(),
		logger:      log,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match scores profile against list. A job whose scoring fails is skipped;
// only a cancelled context fails the whole run.
func (e *Engine) Match(ctx context.Context, profile session.Profile, list []jobs.Job) (*Result, error) {
	completeness := ClassifyCompleteness(profile)
	scored := make([]*JobMatch, len(list))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, job := range list {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			m, err := e.scoreJob(ctx, profile, completeness, job)
			if err != nil {
				e.logger.Warn("job scoring failed, skipping job",
					zap.String("job_id", job.ID),
					zap.String("scorer", e.scorer.Name()),
					zap.Error(err),
				)
				return nil
			}
			m.position = i
			scored[i] = m
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Completeness: completeness}
	matches := make([]JobMatch, 0, len(list))
	for _, m := range scored {
		if m == nil {
			result.Failed++
			continue
		}
		matches = append(matches, *m)
	}
	result.Scored = len(matches)
	result.Matches = runFilters(ctx, e.logger, e.filters, matches)

	e.logger.Info("matching completed",
		zap.String("scorer", e.scorer.Name()),
		zap.String("completeness", string(completeness)),
		zap.Int("jobs", len(list)),
		zap.Int("scored", result.Scored),
		zap.Int("failed", result.Failed),
		zap.Int("matches", len(result.Matches)),
	)
	return result, nil
}

func (e *Engine) scoreJob(ctx context.Context, profile session.Profile, completeness Completeness, job jobs.Job) (*JobMatch, error) {
	if e.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.jobTimeout)
		defer cancel()
	}

	verdict, err := e.scorer.Score(ctx, profile, completeness, job)
	if err != nil {
		return nil, err
	}

	b := verdict.Breakdown.clamped()
	if schema.LevelRank(profile.LanguageLevel) == 0 && job.LanguageLevel != schema.LevelAny && b.Language > UnknownLanguageCap {
		b.Language = UnknownLanguageCap
	}

	m := &JobMatch{
		Job:       job,
		Score:     b.Weighted(),
		Breakdown: b,
		Reasoning: verdict.Reasoning,
	}

	if terms := e.lexicon.Scan(verdict.Reasoning); len(terms) > 0 {
		m.BiasFlag = true
		m.FlaggedTerms = terms
		e.logger.Warn("bias audit flag on match reasoning",
			zap.String("job_id", job.ID),
			zap.Strings("terms", terms),
			zap.String("scorer", e.scorer.Name()),
		)
	}
	return m, nil
}
