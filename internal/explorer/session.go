// Package explorer ties the pipeline together for one user: focal actor
// selection, year filtering, aggregation, graph building, layout and node
// activation. Every aggregation pass is tagged with a generation and its
// result is applied only while that generation is still current.
package explorer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/graph"
	"github.com/msalah0e/castgraph/internal/layout"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/selection"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

var (
	// ErrSuperseded is returned by a pass whose result was discarded because
	// a newer selection or range change started after it.
	ErrSuperseded  = errors.New("explorer: superseded by a newer pass")
	ErrNoFocal     = errors.New("explorer: no focal actor selected")
	ErrUnknownNode = errors.New("explorer: node not in current graph")
	ErrClosed      = errors.New("explorer: session closed")
)

// Recorder persists focal selections.
type Recorder interface {
	Record(actor tmdb.Actor, yr aggregate.YearRange) error
}

// EventType tags session events.
type EventType string

const (
	EventUpdate EventType = "update"
	EventNotice EventType = "notice"
	EventShared EventType = "shared"
)

// Notice is a user-visible, recoverable message.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Event is pushed to the session's event channel.
type Event struct {
	Type   EventType                    `json:"type"`
	At     time.Time                    `json:"at"`
	Update *State                       `json:"update,omitempty"`
	Notice *Notice                      `json:"notice,omitempty"`
	Shared *selection.SharedFilmography `json:"shared,omitempty"`
}

// State is the applied result of the latest current pass.
type State struct {
	Generation uint64                     `json:"generation"`
	Focal      tmdb.Actor                 `json:"focal"`
	Range      aggregate.YearRange        `json:"range"`
	Bounds     aggregate.YearRange        `json:"bounds"`
	Colleagues []aggregate.ColleagueCount `json:"colleagues"`
	Graph      graph.Graph                `json:"graph"`

	details tmdb.ActorDetails
}

// Options configures a Session.
type Options struct {
	Aggregator *aggregate.Aggregator
	Engine     *layout.Engine
	Window     time.Duration
	Strict     bool
	Clock      selection.Clock
	Rand       *rand.Rand
	Recorder   Recorder
	Logger     *zap.SugaredLogger
	Metrics    *metrics.Registry
}

// Session is one exploration. It is safe for concurrent use.
type Session struct {
	ID string

	svc       tmdb.Service
	agg       *aggregate.Aggregator
	engine    *layout.Engine
	selection *selection.Controller
	inspector *selection.Inspector
	recorder  Recorder
	log       *zap.SugaredLogger
	metrics   *metrics.Registry

	gen atomic.Uint64

	mu         sync.Mutex
	rng        *rand.Rand
	passCancel context.CancelFunc
	applied    *State
	closed     bool

	ctx    context.Context
	stop   context.CancelFunc
	events chan Event
}

// New opens a session over svc.
func New(svc tmdb.Service, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Aggregator == nil {
		opts.Aggregator = aggregate.New(svc, aggregate.WithLogger(opts.Logger))
	}
	if opts.Engine == nil {
		opts.Engine = layout.New(layout.WithLogger(opts.Logger), layout.WithMetrics(opts.Metrics))
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.NewString(),
		svc:       svc,
		agg:       opts.Aggregator,
		engine:    opts.Engine,
		inspector: selection.NewInspector(svc),
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		rng:       opts.Rand,
		ctx:       ctx,
		stop:      stop,
		events:    make(chan Event, 64),
	}
	s.log = opts.Logger.Named("explorer").With("session", s.ID)

	selOpts := []selection.Option{
		selection.WithWindow(opts.Window),
		selection.WithStrict(opts.Strict),
		selection.WithLogger(opts.Logger),
	}
	if opts.Clock != nil {
		selOpts = append(selOpts, selection.WithClock(opts.Clock))
	}
	s.selection = selection.New(s.handleCommand, selOpts...)

	s.metrics.SessionOpened()
	return s
}

// Engine returns the session's layout engine.
func (s *Session) Engine() *layout.Engine { return s.engine }

// Events delivers updates, notices and inspections. Events are dropped when
// the consumer falls behind. The channel is closed by Close.
func (s *Session) Events() <-chan Event { return s.events }

// Select makes actorID the focal actor: fetches their filmography, resets the
// year filter to the filmography's bounds and runs an aggregation pass. The
// new focal actor takes effect only when its pass is applied; until then, and
// on failure, the previously applied graph and focal actor stay current.
func (s *Session) Select(ctx context.Context, actorID int) error {
	gen, passCtx, err := s.beginPass(ctx)
	if err != nil {
		return err
	}

	details, err := s.svc.ActorDetails(passCtx, actorID)
	if err != nil {
		if s.gen.Load() != gen {
			s.metrics.AggregationPass(metrics.PassStale, 0)
			return ErrSuperseded
		}
		s.metrics.AggregationPass(metrics.PassFailed, 0)
		err = errors.Wrapf(err, "select actor %d", actorID)
		s.notify("error", err.Error())
		return err
	}

	bounds, ok := aggregate.YearBounds(details.Filmography)
	if !ok {
		now := time.Now().Year()
		bounds = aggregate.YearRange{Min: now, Max: now}
	}

	if s.gen.Load() != gen {
		s.metrics.AggregationPass(metrics.PassStale, 0)
		return ErrSuperseded
	}
	s.log.Infow("focal selected", "actor_id", details.ID, "name", details.Name,
		"credits", len(details.Filmography), "from", bounds.Min, "to", bounds.Max)

	if err := s.runPass(passCtx, gen, details, bounds, bounds); err != nil {
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.Record(details.Actor, bounds); err != nil {
			s.log.Debugw("history write failed", "error", err)
		}
	}
	return nil
}

// SetYearRange re-aggregates the displayed focal actor over yr, clamped to
// their filmography's bounds. A range outside the bounds applies an empty,
// focal-only graph. Any pass still in flight is superseded.
func (s *Session) SetYearRange(ctx context.Context, yr aggregate.YearRange) error {
	if !yr.Valid() {
		return errors.Newf("explorer: empty year range %d-%d", yr.Min, yr.Max)
	}

	s.mu.Lock()
	if s.applied == nil {
		s.mu.Unlock()
		return ErrNoFocal
	}
	focal := s.applied.details
	bounds := s.applied.Bounds
	s.mu.Unlock()

	if clamped := yr.Clamp(bounds); clamped.Valid() {
		yr = clamped
	}

	gen, passCtx, err := s.beginPass(ctx)
	if err != nil {
		return err
	}
	return s.runPass(passCtx, gen, focal, yr, bounds)
}

// beginPass claims a new generation and cancels the previous pass.
func (s *Session) beginPass(ctx context.Context) (uint64, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, ErrClosed
	}
	if s.passCancel != nil {
		s.passCancel()
	}
	passCtx, cancel := context.WithCancel(ctx)
	s.passCancel = cancel
	return s.gen.Add(1), passCtx, nil
}

func (s *Session) runPass(ctx context.Context, gen uint64, focal tmdb.ActorDetails, yr, bounds aggregate.YearRange) error {
	start := time.Now()
	colleagues, stats, err := s.agg.AggregateStats(ctx, focal.ID, focal.Filmography, yr)
	if err != nil {
		if s.gen.Load() != gen {
			s.metrics.AggregationPass(metrics.PassStale, stats.Movies)
			return ErrSuperseded
		}
		s.metrics.AggregationPass(metrics.PassFailed, stats.Movies)
		s.notify("error", err.Error())
		return err
	}

	s.mu.Lock()
	g := graph.Build(focal.Actor, colleagues, graph.WithRand(s.rng))

	if s.gen.Load() != gen {
		s.mu.Unlock()
		s.metrics.AggregationPass(metrics.PassStale, stats.Movies)
		s.log.Debugw("discarded stale pass", "generation", gen)
		return ErrSuperseded
	}
	if s.applied == nil || s.applied.Focal.ID != focal.ID {
		// Pending activations refer to nodes of the graph being replaced.
		s.selection.Reset()
	}
	st := &State{
		Generation: gen,
		Focal:      focal.Actor,
		Range:      yr,
		Bounds:     bounds,
		Colleagues: colleagues,
		Graph:      g,
		details:    focal,
	}
	s.applied = st
	s.engine.SetTopology(g)
	s.mu.Unlock()

	if stats.Failed > 0 {
		s.notify("warn", failedNotice(stats))
	}

	s.metrics.AggregationPass(metrics.PassApplied, stats.Movies)
	s.log.Infow("pass applied", "generation", gen, "movies", stats.Movies, "failed", stats.Failed,
		"colleagues", len(colleagues), "elapsed", time.Since(start).Round(time.Millisecond))
	s.emit(Event{Type: EventUpdate, Update: st})
	return nil
}

// Current returns the last applied state, if any.
func (s *Session) Current() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return State{}, false
	}
	return *s.applied, true
}

// Focal returns the details of the focal actor of the displayed graph.
func (s *Session) Focal() (tmdb.ActorDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return tmdb.ActorDetails{}, false
	}
	return s.applied.details, true
}

// Generation is the latest generation handed out.
func (s *Session) Generation() uint64 { return s.gen.Load() }

// Activate routes a node activation through the selection controller.
func (s *Session) Activate(nodeID int, now time.Time) error {
	s.mu.Lock()
	if s.applied == nil {
		s.mu.Unlock()
		return ErrNoFocal
	}
	node, ok := s.applied.Graph.Node(nodeID)
	s.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "node %d", nodeID)
	}
	s.selection.OnNodeActivate(node, now)
	return nil
}

// Inspect returns the movies shared by the focal actor and otherID.
func (s *Session) Inspect(ctx context.Context, otherID int) (selection.SharedFilmography, error) {
	focal, ok := s.Focal()
	if !ok {
		return selection.SharedFilmography{}, ErrNoFocal
	}
	return s.inspector.Shared(ctx, focal, otherID)
}

func (s *Session) handleCommand(cmd selection.Command) {
	switch cmd.Kind {
	case selection.Recenter:
		go func() {
			if err := s.Select(s.ctx, cmd.Node.ID); err != nil && !errors.Is(err, ErrSuperseded) {
				s.log.Warnw("recenter failed", "actor_id", cmd.Node.ID, "error", err)
			}
		}()
	case selection.Inspect:
		go func() {
			shared, err := s.Inspect(s.ctx, cmd.Node.ID)
			if err != nil {
				s.log.Warnw("inspect failed", "actor_id", cmd.Node.ID, "error", err)
				s.notify("error", err.Error())
				return
			}
			s.emit(Event{Type: EventShared, Shared: &shared})
		}()
	}
}

func (s *Session) notify(level, msg string) {
	s.emit(Event{Type: EventNotice, Notice: &Notice{Level: level, Message: msg}})
}

func (s *Session) emit(ev Event) {
	ev.At = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Debugw("event dropped", "type", ev.Type)
	}
}

// Close cancels in-flight work and closes the event channel.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.passCancel != nil {
		s.passCancel()
	}
	close(s.events)
	s.mu.Unlock()

	s.stop()
	s.selection.Reset()
	s.metrics.SessionClosed()
}

func failedNotice(st aggregate.Stats) string {
	if st.Failed == 1 {
		return "1 movie could not be loaded; its cast is missing from the graph"
	}
	return fmt.Sprintf("%d of %d movies could not be loaded; their casts are missing from the graph", st.Failed, st.Movies)
}
