// Package layout runs a force-directed simulation over a star graph. An
// Engine owns all position and velocity state; SetTopology and Tick are the
// only operations that change it.
package layout

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/graph"
	"github.com/msalah0e/castgraph/internal/metrics"
)

// State is the lifecycle of the simulation.
type State int

const (
	Idle State = iota
	Running
	Settled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

// EventKind distinguishes engine notifications.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventSettled EventKind = "settled"
)

// Event is delivered to subscribers on reheat and on settle.
type Event struct {
	Kind  EventKind `json:"kind"`
	Ticks int       `json:"ticks"`
	At    time.Time `json:"at"`
}

// Frame is a snapshot of the simulation after a tick.
type Frame struct {
	Seq   uint64       `json:"seq"`
	Alpha float64      `json:"alpha"`
	State string       `json:"state"`
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Point is a node position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Simulation defaults.
const (
	DefaultCharge        = -30.0
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	settleTicks          = 300
)

type body struct {
	node   graph.Node
	x, y   float64
	vx, vy float64
	radius float64
}

type link struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64
}

// Engine is a d3-style force simulation with link, many-body and collision
// forces. It is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	charge        float64
	alphaMin      float64
	alphaDecay    float64
	velocityDecay float64
	linkDistance  func(graph.Edge) float64
	radius        func(graph.Node) float64

	bodies []body
	links  []link
	edges  []graph.Edge
	alpha  float64
	state  State
	seq    uint64
	ticks  int

	rng     *rand.Rand
	subs    []chan Event
	wake    chan struct{}
	log     *zap.SugaredLogger
	metrics *metrics.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithCharge sets the many-body strength; negative values repel.
func WithCharge(c float64) Option {
	return func(e *Engine) { e.charge = c }
}

// WithAlphaMin sets the settle threshold. The decay rate is derived so the
// simulation settles after about 300 ticks.
func WithAlphaMin(m float64) Option {
	return func(e *Engine) {
		if m > 0 && m < 1 {
			e.alphaMin = m
		}
	}
}

func WithVelocityDecay(d float64) Option {
	return func(e *Engine) {
		if d >= 0 && d <= 1 {
			e.velocityDecay = d
		}
	}
}

// WithLinkDistance replaces the per-edge rest length function.
func WithLinkDistance(fn func(graph.Edge) float64) Option {
	return func(e *Engine) { e.linkDistance = fn }
}

// WithRadius replaces the collision radius function.
func WithRadius(fn func(graph.Node) float64) Option {
	return func(e *Engine) { e.radius = fn }
}

func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		charge:        DefaultCharge,
		alphaMin:      DefaultAlphaMin,
		velocityDecay: DefaultVelocityDecay,
		linkDistance:  EdgeDistance,
		radius:        CollideRadius,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		wake:          make(chan struct{}, 1),
		log:           zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(e)
	}
	e.alphaDecay = 1 - math.Pow(e.alphaMin, 1.0/settleTicks)
	e.log = e.log.Named("layout")
	return e
}

// SetTopology replaces the simulated graph and reheats the simulation. It is
// valid in every state.
func (e *Engine) SetTopology(g graph.Graph) {
	e.mu.Lock()

	e.bodies = make([]body, len(g.Nodes))
	index := make(map[int]int, len(g.Nodes))
	for i, n := range g.Nodes {
		b := body{node: n, x: n.X, y: n.Y, radius: e.radius(n)}
		if n.FX != nil {
			b.x = *n.FX
		}
		if n.FY != nil {
			b.y = *n.FY
		}
		e.bodies[i] = b
		index[n.ID] = i
	}

	e.edges = append([]graph.Edge(nil), g.Edges...)
	degree := make([]int, len(g.Nodes))
	e.links = e.links[:0]
	for _, ed := range g.Edges {
		s, okS := index[ed.Source]
		t, okT := index[ed.Target]
		if !okS || !okT {
			continue
		}
		degree[s]++
		degree[t]++
		e.links = append(e.links, link{source: s, target: t, distance: e.linkDistance(ed)})
	}
	for i := range e.links {
		l := &e.links[i]
		ds, dt := degree[l.source], degree[l.target]
		l.strength = 1 / float64(min(ds, dt))
		l.bias = float64(ds) / float64(ds+dt)
	}

	e.log.Debugw("topology set", "nodes", len(e.bodies), "links", len(e.links))
	ev := e.reheatLocked()
	e.mu.Unlock()

	e.publish(ev)
}

// Reheat restarts the simulation without changing the topology.
func (e *Engine) Reheat() {
	e.mu.Lock()
	if e.state == Idle {
		e.mu.Unlock()
		return
	}
	ev := e.reheatLocked()
	e.mu.Unlock()
	e.publish(ev)
}

func (e *Engine) reheatLocked() Event {
	e.alpha = 1
	e.ticks = 0
	e.state = Running
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return Event{Kind: EventStarted, At: time.Now()}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Alpha returns the current simulation energy.
func (e *Engine) Alpha() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alpha
}

// Tick advances the simulation by one step when it is running and returns
// the resulting frame. Idle and settled engines return their current frame
// unchanged.
func (e *Engine) Tick() Frame {
	e.mu.Lock()
	if e.state != Running {
		f := e.frameLocked()
		e.mu.Unlock()
		return f
	}

	e.alpha += (0 - e.alpha) * e.alphaDecay
	e.applyLinks()
	e.applyCharge()
	e.applyCollide()
	e.integrate()
	e.ticks++
	e.seq++

	var ev *Event
	if e.alpha < e.alphaMin {
		e.state = Settled
		ev = &Event{Kind: EventSettled, Ticks: e.ticks, At: time.Now()}
		e.log.Debugw("settled", "ticks", e.ticks)
	}
	f := e.frameLocked()
	e.mu.Unlock()

	if ev != nil {
		e.metrics.LayoutSettled()
		e.publish(*ev)
	}
	return f
}

// Settle ticks until the simulation settles or maxTicks steps have run, and
// returns the last frame with the number of ticks taken.
func (e *Engine) Settle(maxTicks int) (Frame, int) {
	var f Frame
	n := 0
	for ; n < maxTicks && e.State() == Running; n++ {
		f = e.Tick()
	}
	if n == 0 {
		f = e.Snapshot()
	}
	return f, n
}

// Run drives Tick every interval until ctx is done, passing each frame to fn.
// While the engine is idle or settled Run sleeps until the next reheat.
func (e *Engine) Run(ctx context.Context, interval time.Duration, fn func(Frame)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if e.State() != Running {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.wake:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f := e.Tick()
			if fn != nil {
				fn(f)
			}
		}
	}
}

// Snapshot returns the current frame without advancing the simulation.
func (e *Engine) Snapshot() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

// Positions returns a copy of the current node positions keyed by id.
func (e *Engine) Positions() map[int]Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int]Point, len(e.bodies))
	for _, b := range e.bodies {
		out[b.node.ID] = Point{X: b.x, Y: b.y}
	}
	return out
}

// Subscribe returns a channel receiving lifecycle events. Slow subscribers
// miss events rather than block the simulation.
func (e *Engine) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (e *Engine) Unsubscribe(ch <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s == ch {
			close(s)
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}

func (e *Engine) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Engine) frameLocked() Frame {
	nodes := make([]graph.Node, len(e.bodies))
	for i, b := range e.bodies {
		n := b.node
		n.X, n.Y = b.x, b.y
		nodes[i] = n
	}
	return Frame{
		Seq:   e.seq,
		Alpha: e.alpha,
		State: e.state.String(),
		Nodes: nodes,
		Edges: append([]graph.Edge(nil), e.edges...),
	}
}

func (e *Engine) jiggle() float64 {
	return (e.rng.Float64() - 0.5) * 1e-6
}

func (e *Engine) applyLinks() {
	for _, l := range e.links {
		s, t := &e.bodies[l.source], &e.bodies[l.target]
		x := t.x + t.vx - s.x - s.vx
		y := t.y + t.vy - s.y - s.vy
		if x == 0 {
			x = e.jiggle()
		}
		if y == 0 {
			y = e.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.distance) / d * e.alpha * l.strength
		x *= k
		y *= k
		t.vx -= x * l.bias
		t.vy -= y * l.bias
		s.vx += x * (1 - l.bias)
		s.vy += y * (1 - l.bias)
	}
}

func (e *Engine) applyCharge() {
	for i := range e.bodies {
		bi := &e.bodies[i]
		for j := range e.bodies {
			if i == j {
				continue
			}
			bj := &e.bodies[j]
			x := bj.x - bi.x
			y := bj.y - bi.y
			if x == 0 {
				x = e.jiggle()
			}
			if y == 0 {
				y = e.jiggle()
			}
			l := x*x + y*y
			if l < 1 {
				l = math.Sqrt(l)
			}
			w := e.charge * e.alpha / l
			bi.vx += x * w
			bi.vy += y * w
		}
	}
}

func (e *Engine) applyCollide() {
	for i := range e.bodies {
		bi := &e.bodies[i]
		ri := bi.radius
		ri2 := ri * ri
		xi := bi.x + bi.vx
		yi := bi.y + bi.vy
		for j := i + 1; j < len(e.bodies); j++ {
			bj := &e.bodies[j]
			rj := bj.radius
			r := ri + rj
			x := xi - bj.x - bj.vx
			y := yi - bj.y - bj.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = e.jiggle()
				l += x * x
			}
			if y == 0 {
				y = e.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (r - d) / d
			x *= k
			y *= k
			rj2 := rj * rj
			ratio := rj2 / (ri2 + rj2)
			bi.vx += x * ratio
			bi.vy += y * ratio
			bj.vx -= x * (1 - ratio)
			bj.vy -= y * (1 - ratio)
		}
	}
}

func (e *Engine) integrate() {
	keep := 1 - e.velocityDecay
	for i := range e.bodies {
		b := &e.bodies[i]
		if b.node.FX != nil {
			b.x = *b.node.FX
			b.vx = 0
		} else {
			b.vx *= keep
			b.x += b.vx
		}
		if b.node.FY != nil {
			b.y = *b.node.FY
			b.vy = 0
		} else {
			b.vy *= keep
			b.y += b.vy
		}
	}
}
