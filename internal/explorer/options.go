package explorer

import (
	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/layout"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// OptionsFromConfig wires session components from configuration.
func OptionsFromConfig(svc tmdb.Service, cfg *config.Config, log *zap.SugaredLogger, m *metrics.Registry) Options {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return Options{
		Aggregator: aggregate.New(svc,
			aggregate.WithConcurrency(cfg.Aggregate.Concurrency),
			aggregate.WithLimit(cfg.Aggregate.Limit),
			aggregate.WithLogger(log),
		),
		Engine: layout.New(
			layout.WithCharge(cfg.Layout.Charge),
			layout.WithAlphaMin(cfg.Layout.AlphaMin),
			layout.WithLogger(log),
			layout.WithMetrics(m),
		),
		Window:  cfg.Selection.Window(),
		Strict:  cfg.Selection.Strict,
		Logger:  log,
		Metrics: m,
	}
}
