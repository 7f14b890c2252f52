package cmd

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/explorer"
	"github.com/msalah0e/castgraph/internal/graph"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// maxSettleTicks bounds the offline layout. With the default alpha floor the
// simulation settles in about 300 ticks.
const maxSettleTicks = 1000

type exploration struct {
	Focal      tmdb.Actor                 `json:"focal"`
	Range      aggregate.YearRange        `json:"range"`
	Bounds     aggregate.YearRange        `json:"bounds"`
	Stats      aggregate.Stats            `json:"stats"`
	Colleagues []aggregate.ColleagueCount `json:"colleagues"`
	Graph      graph.Graph                `json:"graph"`
	Ticks      int                        `json:"ticks"`
}

// explore runs one aggregation pass for focal over [from, to] and settles the
// resulting layout. Zero bounds default to the filmography's year bounds.
func explore(ctx context.Context, svc tmdb.Service, c *config.Config, log *zap.SugaredLogger, focal tmdb.ActorDetails, from, to int) (exploration, error) {
	bounds, ok := aggregate.YearBounds(focal.Filmography)
	if !ok {
		return exploration{}, errors.Newf("%s has no dated movies", focal.Name)
	}
	yr := bounds
	if from > 0 {
		yr.Min = from
	}
	if to > 0 {
		yr.Max = to
	}
	yr = yr.Clamp(bounds)
	if !yr.Valid() {
		return exploration{}, errors.WithHintf(
			errors.Newf("empty year range %d-%d", yr.Min, yr.Max),
			"%s's movies span %d-%d", focal.Name, bounds.Min, bounds.Max)
	}

	opts := explorer.OptionsFromConfig(svc, c, log, nil)
	colleagues, stats, err := opts.Aggregator.AggregateStats(ctx, focal.ID, focal.Filmography, yr)
	if err != nil {
		return exploration{}, err
	}

	g := graph.Build(focal.Actor, colleagues)
	opts.Engine.SetTopology(g)
	frame, ticks := opts.Engine.Settle(maxSettleTicks)
	g.Nodes = frame.Nodes

	return exploration{
		Focal:      focal.Actor,
		Range:      yr,
		Bounds:     bounds,
		Stats:      stats,
		Colleagues: colleagues,
		Graph:      g,
		Ticks:      ticks,
	}, nil
}
