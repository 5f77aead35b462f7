package matching

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Filter is one post-scoring step applied to the match list.
type Filter interface {
	Name() string
	Apply(ctx context.Context, log *zap.Logger, matches []JobMatch) ([]JobMatch, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// DefaultFilters keeps matches scoring above 50, ranks them and keeps the top 3.
func DefaultFilters() []Filter {
	return []Filter{NewMinScore(50), NewRank(), NewTop(3)}
}

type minScoreFilter struct {
	min float64
}

// NewMinScore drops matches scoring min or less.
func NewMinScore(min float64) Filter {
	return &minScoreFilter{min: min}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Apply(_ context.Context, log *zap.Logger, matches []JobMatch) ([]JobMatch, Step) {
	initial := len(matches)
	kept := make([]JobMatch, 0, len(matches))
	var dropped []string
	for _, m := range matches {
		if m.Score > f.min {
			kept = append(kept, m)
			continue
		}
		dropped = append(dropped, m.Job.ID)
	}
	if log != nil && len(dropped) > 0 {
		log.Debug("excluding jobs below the minimum score",
			zap.Float64("min_score", f.min),
			zap.Strings("excluded_jobs", dropped),
		)
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

type rankFilter struct{}

// NewRank sorts matches by descending score; ties keep the job list order.
func NewRank() Filter {
	return rankFilter{}
}

func (rankFilter) Name() string { return "rank" }

func (rankFilter) Apply(_ context.Context, _ *zap.Logger, matches []JobMatch) ([]JobMatch, Step) {
	sorted := append([]JobMatch(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].position < sorted[j].position
	})
	return sorted, Step{Initial: len(matches), Left: len(sorted)}
}

type topFilter struct {
	n int
}

// NewTop keeps the first n matches.
func NewTop(n int) Filter {
	return &topFilter{n: n}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Apply(_ context.Context, _ *zap.Logger, matches []JobMatch) ([]JobMatch, Step) {
	initial := len(matches)
	if initial > f.n {
		matches = matches[:f.n]
	}
	return matches, Step{Initial: initial, Dropped: initial - len(matches), Left: len(matches)}
}

// runFilters executes the filters sequentially and logs each step.
func runFilters(ctx context.Context, log *zap.Logger, filters []Filter, matches []JobMatch) []JobMatch {
	for _, f := range filters {
		next, info := f.Apply(ctx, log, matches)
		log.Debug("filter step",
			zap.String("name", f.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		matches = next
	}
	return matches
}
