package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/msalah0e/castgraph/internal/tmdb"
	"github.com/msalah0e/castgraph/internal/tmdb/tmdbtest"
)

const focalID = 1

func castsFromIDs(ids [][]int) [][]tmdb.Actor {
	casts := make([][]tmdb.Actor, len(ids))
	for i, movie := range ids {
		for _, id := range movie {
			casts[i] = append(casts[i], person(id, "P"))
		}
	}
	return casts
}

// TestFoldInvariants checks the ranking invariants for arbitrary casts.
func TestFoldInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	castGen := gen.SliceOf(gen.SliceOf(gen.IntRange(1, 12)))

	properties.Property("focal never appears and counts stay within movie count", prop.ForAll(
		func(ids [][]int) bool {
			out := Fold(focalID, castsFromIDs(ids), DefaultLimit)
			seen := map[int]bool{}
			for _, cc := range out {
				if cc.Actor.ID == focalID || seen[cc.Actor.ID] {
					return false
				}
				seen[cc.Actor.ID] = true
				if cc.Count < 1 || cc.Count > len(ids) {
					return false
				}
			}
			return true
		},
		castGen,
	))

	properties.Property("output is sorted by count descending", prop.ForAll(
		func(ids [][]int) bool {
			out := Fold(focalID, castsFromIDs(ids), DefaultLimit)
			for i := 1; i < len(out); i++ {
				if out[i-1].Count < out[i].Count {
					return false
				}
			}
			return true
		},
		castGen,
	))

	properties.TestingRun(t)
}

// TestAggregateCompletionOrderProperty permutes completion order through
// per-movie delays and expects an identical ranking.
func TestAggregateCompletionOrderProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timing-based property test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 15

	properties := gopter.NewProperties(parameters)

	properties.Property("ranking ignores completion order", prop.ForAll(
		func(ids [][]int, delays []int) bool {
			f := tmdbtest.New()
			films := make([]tmdb.Credit, len(ids))
			casts := castsFromIDs(ids)
			for i := range ids {
				movieID := 1000 + i
				f.SetCast(movieID, casts[i]...)
				films[i] = credit(movieID, "2000-01-01")
			}
			yr := YearRange{Min: 1990, Max: 2010}

			want, err := New(f).Aggregate(context.Background(), focalID, films, yr)
			if err != nil {
				return false
			}

			for i, d := range delays {
				if i < len(ids) {
					f.Delay[1000+i] = time.Duration(d) * time.Millisecond
				}
			}
			got, err := New(f, WithConcurrency(len(ids)+1)).Aggregate(context.Background(), focalID, films, yr)
			if err != nil || len(got) != len(want) {
				return false
			}
			for i := range want {
				if want[i] != got[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.SliceOf(gen.IntRange(1, 8))),
		gen.SliceOfN(6, gen.IntRange(0, 5)),
	))

	properties.TestingRun(t)
}
