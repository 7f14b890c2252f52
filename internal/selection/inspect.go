package selection

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/msalah0e/castgraph/internal/tmdb"
)

// SharedFilmography is the set of movies two actors appeared in together.
type SharedFilmography struct {
	Focal  tmdb.Actor    `json:"focal"`
	Other  tmdb.Actor    `json:"other"`
	Movies []tmdb.Credit `json:"movies"`
}

// Inspector resolves Inspect commands into shared filmographies.
type Inspector struct {
	svc tmdb.Service
}

func NewInspector(svc tmdb.Service) *Inspector {
	return &Inspector{svc: svc}
}

// Shared fetches otherID's filmography and intersects it with the focal
// actor's by movie id, newest first.
func (i *Inspector) Shared(ctx context.Context, focal tmdb.ActorDetails, otherID int) (SharedFilmography, error) {
	other, err := i.svc.ActorDetails(ctx, otherID)
	if err != nil {
		return SharedFilmography{}, errors.Wrapf(err, "inspect actor %d", otherID)
	}
	return SharedFilmography{
		Focal:  focal.Actor,
		Other:  other.Actor,
		Movies: tmdb.SharedCredits(focal.Filmography, other.Filmography),
	}, nil
}
