package tmdb

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
)

// MinQueryLength is the shortest query that reaches the API.
const MinQueryLength = 3

type actorNames []Actor

func (a actorNames) String(i int) string { return a[i].Name }
func (a actorNames) Len() int            { return len(a) }

// Search runs an actor search and ranks the results by how well their names
// match the query. Queries shorter than MinQueryLength return nothing without
// a request. When the fuzzy match discards every result, the API order is
// kept.
func Search(ctx context.Context, svc Service, query string) ([]Actor, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Actor{}, nil
	}

	results, err := svc.SearchActors(ctx, query)
	if err != nil {
		return nil, err
	}
	return Rank(query, results), nil
}

// Rank keeps the actors whose names fuzzy-match query, best match first.
// If none match, results is returned unchanged.
func Rank(query string, results []Actor) []Actor {
	if len(results) == 0 {
		return []Actor{}
	}
	matches := fuzzy.FindFrom(query, actorNames(results))
	if len(matches) == 0 {
		return results
	}

	ranked := make([]Actor, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, results[m.Index])
	}
	return ranked
}
