package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/msalah0e/castgraph/internal/cache"
	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/logger"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/tmdb"
	"github.com/msalah0e/castgraph/internal/ui"
)

// newService builds the TMDB client from configuration, backed by the disk
// cache when it can be opened.
func newService(c *config.Config, m *metrics.Registry) (*tmdb.Client, error) {
	log := logger.Named("cmd")
	disk, err := cache.Open(cache.Dir(), c.TMDB.CacheTTL())
	if err != nil {
		log.Warnw("disk cache unavailable", "dir", cache.Dir(), "error", err)
		disk = nil
	}
	return tmdb.NewClient(tmdb.Options{
		APIKey:            c.TMDB.APIKey,
		BaseURL:           c.TMDB.BaseURL,
		Timeout:           c.TMDB.Timeout(),
		RequestsPerSecond: c.TMDB.RequestsPerSecond,
		Burst:             c.TMDB.Burst,
		Disk:              disk,
		Logger:            logger.Logger,
		Metrics:           m,
	})
}

// resolveActor accepts a TMDB person id or a name. Names resolve to the best
// search match.
func resolveActor(ctx context.Context, svc tmdb.Service, arg string) (tmdb.ActorDetails, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.Atoi(arg); err == nil {
		if id <= 0 {
			return tmdb.ActorDetails{}, errors.Newf("invalid actor id %d", id)
		}
		return svc.ActorDetails(ctx, id)
	}

	results, err := tmdb.Search(ctx, svc, arg)
	if err != nil {
		return tmdb.ActorDetails{}, err
	}
	if len(results) == 0 {
		return tmdb.ActorDetails{}, errors.WithHint(
			errors.Wrapf(tmdb.ErrNotFound, "no actor matching %q", arg),
			"names need at least 3 characters; try `castgraph search` first")
	}
	return svc.ActorDetails(ctx, results[0].ID)
}

func printError(err error) {
	ui.Bad.Printf("  %s %v\n", ui.StatusIcon(false), err)
	for _, h := range errors.GetAllHints(err) {
		ui.Subtle.Printf("  hint: %s\n", h)
	}
}
