// Package tmdb is the movie-metadata boundary: explicit schemas for actors and
// credits, and an HTTP client for The Movie Database v3 API.
package tmdb

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Service is the metadata source the rest of castgraph depends on.
type Service interface {
	SearchActors(ctx context.Context, query string) ([]Actor, error)
	ActorDetails(ctx context.Context, id int) (ActorDetails, error)
	MovieCast(ctx context.Context, movieID int) ([]Actor, error)
}

var (
	ErrNotFound     = errors.New("tmdb: not found")
	ErrUnauthorized = errors.New("tmdb: unauthorized")
	ErrRateLimited  = errors.New("tmdb: rate limited")
	ErrInvalid      = errors.New("tmdb: invalid record")
)
