// Package selection turns raw node activations into recenter and inspect
// commands, telling single from double activations with a timed window.
package selection

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/graph"
)

// DefaultWindow is the double-activation window.
const DefaultWindow = 250 * time.Millisecond

// CommandKind is what an activation resolved to.
type CommandKind string

const (
	Recenter CommandKind = "recenter"
	Inspect  CommandKind = "inspect"
)

// Command is emitted to the handler once an activation is resolved.
type Command struct {
	Kind CommandKind `json:"kind"`
	Node graph.Node  `json:"node"`
	At   time.Time   `json:"at"`
}

// Handler receives resolved commands. Recenter commands are delivered on the
// caller's goroutine; Inspect commands on the timer's.
type Handler func(Command)

type state int

const (
	idle state = iota
	pending
)

// Controller is a two-state machine: idle, or pending with a live timer.
// Each pending period carries a token; a timer whose token is no longer
// current does nothing when it fires.
type Controller struct {
	mu sync.Mutex

	window  time.Duration
	strict  bool
	clock   Clock
	handler Handler
	log     *zap.SugaredLogger

	state     state
	token     uint64
	timer     Timer
	node      graph.Node
	startedAt time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithWindow sets the double-activation window.
func WithWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithStrict makes only a second activation of the same node count as a
// double activation. By default any second activation inside the window
// recenters on the node it targets.
func WithStrict(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) { c.log = l }
}

// New returns an idle controller delivering commands to handler.
func New(handler Handler, opts ...Option) *Controller {
	c := &Controller{
		window:  DefaultWindow,
		clock:   RealClock,
		handler: handler,
		log:     zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Named("selection")
	return c
}

// OnNodeActivate records an activation of node at now.
func (c *Controller) OnNodeActivate(node graph.Node, now time.Time) {
	var emit []Command

	c.mu.Lock()
	if c.state == pending {
		prev := c.node
		c.cancelLocked()

		switch {
		case now.Sub(c.startedAt) >= c.window:
			// The timer is late; resolve the earlier activation as a single
			// one and treat this as a fresh first activation.
			if !prev.Focal {
				emit = append(emit, Command{Kind: Inspect, Node: prev, At: now})
			}
			c.startLocked(node, now)
		case c.strict && prev.ID != node.ID:
			c.startLocked(node, now)
		default:
			if !node.Focal {
				emit = append(emit, Command{Kind: Recenter, Node: node, At: now})
			}
		}
	} else {
		c.startLocked(node, now)
	}
	c.mu.Unlock()

	for _, cmd := range emit {
		c.log.Debugw("resolved", "kind", cmd.Kind, "node_id", cmd.Node.ID)
		c.handler(cmd)
	}
}

// Pending reports whether an activation is waiting for its window to close.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == pending
}

// Reset drops any pending activation without emitting a command.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == pending {
		c.cancelLocked()
	}
}

func (c *Controller) startLocked(node graph.Node, now time.Time) {
	c.token++
	tok := c.token
	c.state = pending
	c.node = node
	c.startedAt = now
	c.timer = c.clock.AfterFunc(c.window, func() { c.expire(tok) })
}

func (c *Controller) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.token++
	c.state = idle
	c.node = graph.Node{}
}

func (c *Controller) expire(tok uint64) {
	c.mu.Lock()
	if c.state != pending || c.token != tok {
		c.mu.Unlock()
		return
	}
	node := c.node
	c.timer = nil
	c.state = idle
	c.node = graph.Node{}
	c.mu.Unlock()

	if node.Focal {
		return
	}
	c.log.Debugw("resolved", "kind", Inspect, "node_id", node.ID)
	c.handler(Command{Kind: Inspect, Node: node, At: c.clock.Now()})
}
