// Package graph builds the star graph around a focal actor: one pinned focal
// node, one node per colleague, one edge per colleague.
package graph

import (
	"math"
	"math/rand"
	"time"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// Seeding and distance constants.
const (
	AnnulusMin  = 200.0
	AnnulusMax  = 300.0
	JitterMin   = 20.0
	JitterMax   = 50.0
	MinDistance = 80.0
)

// Node is a vertex in the layout. X and Y are written only by the layout
// engine once the graph has been handed to it. FX/FY, when set, pin the node.
type Node struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Focal bool     `json:"focal,omitempty"`
	Image string   `json:"image,omitempty"`
	Count int      `json:"count"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	FX    *float64 `json:"fx,omitempty"`
	FY    *float64 `json:"fy,omitempty"`
}

// Pinned reports whether both fixed coordinates are set.
func (n Node) Pinned() bool { return n.FX != nil && n.FY != nil }

// Edge links the focal node to a colleague. Distance is the spring rest
// length the layout should aim for.
type Edge struct {
	Source   int     `json:"source"`
	Target   int     `json:"target"`
	Distance float64 `json:"distance"`
}

// Graph is rebuilt wholesale on every pass; it is never patched.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Focal returns the focal node.
func (g Graph) Focal() (Node, bool) {
	for _, n := range g.Nodes {
		if n.Focal {
			return n, true
		}
	}
	return Node{}, false
}

// Node looks up a node by actor id.
func (g Graph) Node(id int) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// MaxCount is the largest colleague count, never below one.
func (g Graph) MaxCount() int {
	m := 1
	for _, n := range g.Nodes {
		if !n.Focal && n.Count > m {
			m = n.Count
		}
	}
	return m
}

type buildConfig struct {
	rng         *rand.Rand
	minDistance float64
	imageSize   string
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithRand supplies the random source used for seeding and jitter.
func WithRand(r *rand.Rand) BuildOption {
	return func(c *buildConfig) { c.rng = r }
}

// WithMinDistance overrides the floor spring length.
func WithMinDistance(d float64) BuildOption {
	return func(c *buildConfig) {
		if d > 0 {
			c.minDistance = d
		}
	}
}

// WithImageSize selects the portrait size used for node images.
func WithImageSize(size string) BuildOption {
	return func(c *buildConfig) { c.imageSize = size }
}

// Build lays out the star graph for focal and colleagues. Colleagues are
// seeded on an annulus around the origin; the focal node is pinned at the
// origin. Frequent co-stars get short edges, rare ones long edges with random
// jitter. A colleague id seen twice, or equal to the focal id, is skipped.
func Build(focal tmdb.Actor, colleagues []aggregate.ColleagueCount, opts ...BuildOption) Graph {
	cfg := buildConfig{minDistance: MinDistance, imageSize: tmdb.SizeNode}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	origin := 0.0
	fx, fy := origin, origin
	g := Graph{
		Nodes: make([]Node, 0, len(colleagues)+1),
		Edges: make([]Edge, 0, len(colleagues)),
	}
	g.Nodes = append(g.Nodes, Node{
		ID:    focal.ID,
		Name:  focal.Name,
		Focal: true,
		Image: tmdb.ImageURL(cfg.imageSize, focal.ProfilePath),
		FX:    &fx,
		FY:    &fy,
	})

	maxCount := 1
	for _, c := range colleagues {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	seen := map[int]bool{focal.ID: true}
	for _, c := range colleagues {
		if seen[c.Actor.ID] {
			continue
		}
		seen[c.Actor.ID] = true

		theta := cfg.rng.Float64() * 2 * math.Pi
		r := AnnulusMin + cfg.rng.Float64()*(AnnulusMax-AnnulusMin)
		g.Nodes = append(g.Nodes, Node{
			ID:    c.Actor.ID,
			Name:  c.Actor.Name,
			Image: tmdb.ImageURL(cfg.imageSize, c.Actor.ProfilePath),
			Count: c.Count,
			X:     r * math.Cos(theta),
			Y:     r * math.Sin(theta),
		})

		normalized := float64(maxCount - c.Count)
		jitter := JitterMin + (JitterMax-JitterMin)*cfg.rng.Float64()
		g.Edges = append(g.Edges, Edge{
			Source:   focal.ID,
			Target:   c.Actor.ID,
			Distance: jitter*normalized + cfg.minDistance,
		})
	}
	return g
}
