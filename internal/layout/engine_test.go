package layout

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/graph"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

func starGraph(seed int64, counts ...int) graph.Graph {
	cs := make([]aggregate.ColleagueCount, len(counts))
	for i, c := range counts {
		cs[i] = aggregate.ColleagueCount{Actor: tmdb.Actor{ID: 10 + i, Name: "C", ProfilePath: "/c.jpg"}, Count: c}
	}
	return graph.Build(tmdb.Actor{ID: 1, Name: "F"}, cs, graph.WithRand(rand.New(rand.NewSource(seed))))
}

func TestLifecycle(t *testing.T) {
	e := New(WithSeed(1))
	assert.Equal(t, Idle, e.State())
	assert.Empty(t, e.Tick().Nodes, "idle engine has nothing to tick")

	events := e.Subscribe()
	e.SetTopology(starGraph(1, 3, 2, 1))
	assert.Equal(t, Running, e.State())
	assert.Equal(t, 1.0, e.Alpha())
	assert.Equal(t, EventStarted, (<-events).Kind)

	_, ticks := e.Settle(1000)
	assert.Equal(t, Settled, e.State())
	assert.InDelta(t, 300, ticks, 5)

	ev := <-events
	assert.Equal(t, EventSettled, ev.Kind)
	assert.Equal(t, ticks, ev.Ticks)

	before := e.Snapshot()
	after := e.Tick()
	assert.Equal(t, before.Seq, after.Seq, "settled engine does not advance")

	// Reheat from Settled.
	e.SetTopology(starGraph(2, 1))
	assert.Equal(t, Running, e.State())
	assert.Equal(t, 1.0, e.Alpha())
	assert.Equal(t, EventStarted, (<-events).Kind)
}

func TestSetTopologyWhileRunningResetsAlpha(t *testing.T) {
	e := New(WithSeed(1))
	e.SetTopology(starGraph(1, 2, 1))
	for i := 0; i < 50; i++ {
		e.Tick()
	}
	require.Less(t, e.Alpha(), 1.0)

	e.SetTopology(starGraph(3, 4, 4, 1))
	assert.Equal(t, 1.0, e.Alpha())
	assert.Len(t, e.Snapshot().Nodes, 4)
}

func TestFocalStaysPinned(t *testing.T) {
	e := New(WithSeed(4))
	e.SetTopology(starGraph(4, 5, 4, 3, 2, 1, 1, 1))
	e.Settle(1000)

	p := e.Positions()[1]
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 0.0, p.Y)
}

func TestLinksApproachTargetDistance(t *testing.T) {
	g := starGraph(5, 6, 1)
	e := New(WithSeed(5))
	e.SetTopology(g)
	e.Settle(1000)

	pos := e.Positions()
	near := math.Hypot(pos[10].X, pos[10].Y)
	far := math.Hypot(pos[11].X, pos[11].Y)
	assert.Less(t, near, far, "frequent co-star settles closer to the focal node")
	assert.InDelta(t, g.Edges[0].Distance, near, 40)
}

func TestCollisionSeparatesNodes(t *testing.T) {
	g := starGraph(6, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3)
	e := New(WithSeed(6))
	e.SetTopology(g)
	e.Settle(1000)

	frame := e.Snapshot()
	for i := 0; i < len(frame.Nodes); i++ {
		for j := i + 1; j < len(frame.Nodes); j++ {
			a, b := frame.Nodes[i], frame.Nodes[j]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			minGap := CollideRadius(a) + CollideRadius(b)
			assert.Greater(t, d, 0.8*minGap, "nodes %d and %d overlap", a.ID, b.ID)
		}
	}
}

func TestLinkDistanceIsPluggable(t *testing.T) {
	var calls int64
	e := New(WithSeed(1), WithLinkDistance(func(ed graph.Edge) float64 {
		atomic.AddInt64(&calls, 1)
		return 150
	}))
	e.SetTopology(starGraph(1, 3, 2, 1))
	assert.Equal(t, int64(3), calls)
}

func TestSettleRecordsMetric(t *testing.T) {
	reg := metrics.NewRegistry()
	e := New(WithSeed(1), WithMetrics(reg))
	e.SetTopology(starGraph(1, 1))
	e.Settle(1000)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.LayoutSettlesTotal))
}

func TestSingleNodeGraph(t *testing.T) {
	e := New(WithSeed(1))
	e.SetTopology(starGraph(1))
	f, _ := e.Settle(1000)
	require.Len(t, f.Nodes, 1)
	assert.Empty(t, f.Edges)
	assert.Equal(t, Settled, e.State())
}

func TestRunSleepsUntilReheat(t *testing.T) {
	e := New(WithSeed(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames int64
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx, time.Millisecond, func(Frame) { atomic.AddInt64(&frames, 1) })
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&frames), "idle engine produces no frames")

	events := e.Subscribe()
	e.SetTopology(starGraph(1, 2, 1))

	select {
	case <-waitFor(events, EventSettled):
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not settle")
	}
	time.Sleep(10 * time.Millisecond)
	n := atomic.LoadInt64(&frames)
	assert.GreaterOrEqual(t, n, int64(250))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt64(&frames), "settled engine sleeps")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func waitFor(events <-chan Event, kind EventKind) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		for ev := range events {
			if ev.Kind == kind {
				close(out)
				return
			}
		}
	}()
	return out
}

func TestUnsubscribe(t *testing.T) {
	e := New()
	ch := e.Subscribe()
	e.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
	e.SetTopology(starGraph(1, 1))
}

func TestRadii(t *testing.T) {
	focal := graph.Node{Focal: true}
	assert.Equal(t, 12.0, HitRadius(focal))
	assert.Equal(t, 17.0, CollideRadius(focal))
	assert.Equal(t, 20.0, PaintRadius(focal))

	assert.Equal(t, 7.0, HitRadius(graph.Node{Count: 1}))
	assert.Equal(t, 10.0, HitRadius(graph.Node{Count: 4}))
	assert.Equal(t, MaxHitRadius, HitRadius(graph.Node{Count: 1000}))
	assert.Equal(t, 12.0, PaintRadius(graph.Node{Count: 1}))
	assert.Equal(t, MaxPaintRadius, PaintRadius(graph.Node{Count: 50}))

	prev := 0.0
	for c := 1; c < 60; c++ {
		r := HitRadius(graph.Node{Count: c})
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}
