package graph

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

var focal = tmdb.Actor{ID: 1, Name: "Focal", ProfilePath: "/f.jpg"}

func colleagues(counts ...int) []aggregate.ColleagueCount {
	out := make([]aggregate.ColleagueCount, len(counts))
	for i, c := range counts {
		out[i] = aggregate.ColleagueCount{
			Actor: tmdb.Actor{ID: 100 + i, Name: "C", ProfilePath: "/c.jpg"},
			Count: c,
		}
	}
	return out
}

func TestBuildEmpty(t *testing.T) {
	g := Build(focal, nil)

	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
	n := g.Nodes[0]
	assert.True(t, n.Focal)
	require.True(t, n.Pinned())
	assert.Equal(t, 0.0, *n.FX)
	assert.Equal(t, 0.0, *n.FY)
	assert.Equal(t, "https://image.tmdb.org/t/p/w92/f.jpg", n.Image)
}

func TestBuildStar(t *testing.T) {
	g := Build(focal, colleagues(3, 2, 1), WithRand(rand.New(rand.NewSource(1))))

	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)
	for _, e := range g.Edges {
		assert.Equal(t, focal.ID, e.Source)
	}
	for _, n := range g.Nodes[1:] {
		r := math.Hypot(n.X, n.Y)
		assert.GreaterOrEqual(t, r, AnnulusMin)
		assert.Less(t, r, AnnulusMax)
		assert.False(t, n.Pinned())
	}

	// The most frequent co-star sits exactly at the floor distance.
	assert.Equal(t, MinDistance, g.Edges[0].Distance)
	assert.Equal(t, 3, g.MaxCount())
}

func TestBuildSkipsDuplicatesAndFocal(t *testing.T) {
	cs := colleagues(2, 1)
	cs = append(cs, cs[0], aggregate.ColleagueCount{Actor: focal, Count: 5})

	g := Build(focal, cs)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
}

func TestBuildDeterministicWithSeed(t *testing.T) {
	a := Build(focal, colleagues(4, 2, 2, 1), WithRand(rand.New(rand.NewSource(42))))
	b := Build(focal, colleagues(4, 2, 2, 1), WithRand(rand.New(rand.NewSource(42))))
	assert.Equal(t, a.Edges, b.Edges)
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].X, b.Nodes[i].X)
		assert.Equal(t, a.Nodes[i].Y, b.Nodes[i].Y)
	}
}

func TestDistanceBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("edge count equals colleague count", prop.ForAll(
		func(counts []int) bool {
			g := Build(focal, colleagues(counts...))
			return len(g.Edges) == len(counts) && len(g.Nodes) == len(counts)+1
		},
		gen.SliceOf(gen.IntRange(1, 30)),
	))

	// Jitter lies in [20,50), so for a given count the distance lies in
	// [20n+80, 50n+80] with n = max-count. Bands of higher counts never
	// exceed bands of lower counts by more than the jitter spread.
	properties.Property("distance stays within its jitter band", prop.ForAll(
		func(counts []int, seed int64) bool {
			g := Build(focal, colleagues(counts...), WithRand(rand.New(rand.NewSource(seed))))
			maxCount := g.MaxCount()
			for i, e := range g.Edges {
				n := float64(maxCount - counts[i])
				if e.Distance < JitterMin*n+MinDistance || e.Distance > JitterMax*n+MinDistance {
					return false
				}
				if counts[i] == maxCount && e.Distance != MinDistance {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 30)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestDistanceMonotoneInExpectation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const trials = 400
	mean := map[int]float64{}
	for i := 0; i < trials; i++ {
		g := Build(focal, colleagues(10, 7, 4, 1), WithRand(rng))
		for j, e := range g.Edges {
			mean[j] += e.Distance / trials
		}
	}
	assert.Less(t, mean[0], mean[1])
	assert.Less(t, mean[1], mean[2])
	assert.Less(t, mean[2], mean[3])
}

func TestLookups(t *testing.T) {
	g := Build(focal, colleagues(1))
	f, ok := g.Focal()
	require.True(t, ok)
	assert.Equal(t, focal.ID, f.ID)

	n, ok := g.Node(100)
	require.True(t, ok)
	assert.Equal(t, 1, n.Count)

	_, ok = g.Node(999)
	assert.False(t, ok)
}

func TestExports(t *testing.T) {
	g := Build(tmdb.Actor{ID: 1, Name: "<Focal>"}, colleagues(2, 1), WithRand(rand.New(rand.NewSource(3))))

	page := g.ExportHTML("castgraph: <Focal>", ThemeLight, func(Node) float64 { return 10 })
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "&lt;Focal&gt;")
	assert.NotContains(t, page, "<Focal>")
	assert.Contains(t, page, "#f7f7f5")

	dot := g.ExportDOT()
	assert.Contains(t, dot, "n1 -- n100")
	assert.Contains(t, dot, `pos="0,0!"`)

	data, err := g.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"focal": true`)
}
