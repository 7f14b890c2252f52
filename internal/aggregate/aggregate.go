// Package aggregate turns an actor's filmography into a ranked list of the
// people they have worked with most often.
package aggregate

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/parallel"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

const (
	DefaultLimit       = 100
	DefaultConcurrency = 6
	MaxConcurrency     = 16
)

// ColleagueCount is a co-star and the number of in-range movies shared with
// the focal actor. Count is always at least one.
type ColleagueCount struct {
	Actor tmdb.Actor `json:"actor"`
	Count int        `json:"count"`
}

// CastSource fetches the cast of a single movie.
type CastSource interface {
	MovieCast(ctx context.Context, movieID int) ([]tmdb.Actor, error)
}

// Stats describes the work done by the last Aggregate call.
type Stats struct {
	Movies   int `json:"movies"`
	Failed   int `json:"failed"`
	Distinct int `json:"distinct"`
}

// Aggregator fans out per-movie cast lookups and folds them into counts.
type Aggregator struct {
	src         CastSource
	concurrency int
	limit       int
	log         *zap.SugaredLogger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds the number of in-flight cast lookups (1..16).
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n < 1 {
			n = 1
		}
		if n > MaxConcurrency {
			n = MaxConcurrency
		}
		a.concurrency = n
	}
}

// WithLimit caps the number of colleagues returned.
func WithLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.limit = n
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New returns an Aggregator reading casts from src.
func New(src CastSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:         src,
		concurrency: DefaultConcurrency,
		limit:       DefaultLimit,
		log:         zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.Named("aggregate")
	return a
}

// Aggregate returns the focal actor's colleagues over the in-range part of
// filmography, most frequent first. A failing cast lookup contributes
// nothing; only cancellation of ctx is reported as an error.
func (a *Aggregator) Aggregate(ctx context.Context, focalID int, filmography []tmdb.Credit, yr YearRange) ([]ColleagueCount, error) {
	out, _, err := a.AggregateStats(ctx, focalID, filmography, yr)
	return out, err
}

// AggregateStats is Aggregate plus a summary of the pass.
func (a *Aggregator) AggregateStats(ctx context.Context, focalID int, filmography []tmdb.Credit, yr YearRange) ([]ColleagueCount, Stats, error) {
	movies := FilterCredits(filmography, yr)
	stats := Stats{Movies: len(movies)}
	if len(movies) == 0 {
		return []ColleagueCount{}, stats, nil
	}

	tasks := make([]parallel.Task[[]tmdb.Actor], len(movies))
	for i, m := range movies {
		tasks[i] = func(ctx context.Context) ([]tmdb.Actor, error) {
			return a.src.MovieCast(ctx, m.MovieID)
		}
	}

	results, err := parallel.Run(ctx, tasks, a.concurrency)
	if err != nil {
		return nil, stats, errors.Wrap(err, "aggregate colleagues")
	}

	casts := make([][]tmdb.Actor, len(results))
	for i, r := range results {
		if !r.OK() {
			stats.Failed++
			a.log.Warnw("cast lookup failed", "movie_id", movies[i].MovieID, "title", movies[i].Title, "error", r.Err)
			continue
		}
		casts[i] = r.Value
	}

	out, distinct := fold(focalID, casts, a.limit)
	stats.Distinct = distinct
	a.log.Debugw("aggregated", "focal_id", focalID, "movies", stats.Movies, "failed", stats.Failed,
		"distinct", distinct, "returned", len(out))
	return out, stats, nil
}

// Fold counts co-appearances across casts, excluding focalID. Casts are
// processed in order, so ties rank by first appearance. Entries without a
// portrait are dropped and the result is capped at limit.
func Fold(focalID int, casts [][]tmdb.Actor, limit int) []ColleagueCount {
	out, _ := fold(focalID, casts, limit)
	return out
}

func fold(focalID int, casts [][]tmdb.Actor, limit int) ([]ColleagueCount, int) {
	counts := make(map[int]*ColleagueCount)
	var order []int

	for _, cast := range casts {
		inMovie := make(map[int]bool, len(cast))
		for _, member := range cast {
			if member.ID == focalID || inMovie[member.ID] {
				continue
			}
			inMovie[member.ID] = true

			cc, ok := counts[member.ID]
			if !ok {
				cc = &ColleagueCount{}
				counts[member.ID] = cc
				order = append(order, member.ID)
			}
			cc.Count++
			cc.Actor = member
		}
	}

	out := make([]ColleagueCount, 0, len(order))
	for _, id := range order {
		cc := counts[id]
		if cc.Actor.ProfilePath == "" {
			continue
		}
		out = append(out, *cc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, len(order)
}
