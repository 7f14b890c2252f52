// Package server exposes explorer sessions over HTTP and streams layout
// frames and session events over WebSocket.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/explorer"
	"github.com/msalah0e/castgraph/internal/layout"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// Server hosts explorer sessions.
type Server struct {
	svc      tmdb.Service
	cfg      *config.Config
	log      *zap.SugaredLogger
	metrics  *metrics.Registry
	recorder explorer.Recorder
	theme    func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*hub
	router   *gin.Engine
}

// Options configures a Server.
type Options struct {
	Logger   *zap.SugaredLogger
	Metrics  *metrics.Registry
	Recorder explorer.Recorder
	// Theme returns the display theme for the index page.
	Theme func() string
}

// New builds a server and its router.
func New(svc tmdb.Service, cfg *config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Theme == nil {
		opts.Theme = func() string { return "dark" }
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		log:      opts.Logger.Named("server"),
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		theme:    opts.Theme,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*hub),
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.index)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/ws/:id", s.serveWS)

	api := r.Group("/api")
	api.GET("/search", s.search)
	api.GET("/actors/:id/timeline", s.timeline)
	api.GET("/actors/:id/shared/:other", s.shared)

	api.POST("/sessions", s.createSession)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.GET("/sessions/:id/graph", s.sessionGraph)
	api.POST("/sessions/:id/select", s.selectActor)
	api.POST("/sessions/:id/range", s.setRange)
	api.POST("/sessions/:id/activate", s.activate)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	}
}

// openSession creates a session and starts its layout loop.
func (s *Server) openSession() *hub {
	opts := explorer.OptionsFromConfig(s.svc, s.cfg, s.log, s.metrics)
	opts.Recorder = s.recorder
	sess := explorer.New(s.svc, opts)

	h := newHub(sess, s.log)
	s.mu.Lock()
	s.sessions[sess.ID] = h
	s.mu.Unlock()

	h.start(s.ctx, s.cfg.Layout.TickInterval())
	s.log.Infow("session opened", "session", sess.ID)
	return h
}

func (s *Server) lookup(id string) (*hub, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[id]
	return h, ok
}

func (s *Server) closeSession(id string) bool {
	s.mu.Lock()
	h, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		h.close()
		s.log.Infow("session closed", "session", id)
	}
	return ok
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// Close ends every session.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.closeSession(id)
	}
}

// hub fans a session's frames and events out to its websocket clients.
type hub struct {
	session *explorer.Session
	log     *zap.SugaredLogger

	ctx     context.Context
	mu      sync.Mutex
	clients map[*client]bool
	stop    context.CancelFunc
	done    sync.WaitGroup
}

func newHub(sess *explorer.Session, log *zap.SugaredLogger) *hub {
	return &hub{session: sess, log: log, clients: make(map[*client]bool)}
}

func (h *hub) start(parent context.Context, interval time.Duration) {
	ctx, stop := context.WithCancel(parent)
	h.ctx = ctx
	h.stop = stop
	engine := h.session.Engine()
	lifecycle := engine.Subscribe()

	h.done.Add(3)
	go func() {
		defer h.done.Done()
		_ = engine.Run(ctx, interval, func(f layout.Frame) {
			h.broadcast(message{Type: "frame", Data: f}, false)
		})
	}()
	go func() {
		defer h.done.Done()
		defer engine.Unsubscribe(lifecycle)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-lifecycle:
				if !ok {
					return
				}
				h.broadcast(message{Type: "layout", Data: ev}, true)
			}
		}
	}()
	go func() {
		defer h.done.Done()
		for ev := range h.session.Events() {
			h.broadcast(message{Type: string(ev.Type), Data: ev}, true)
		}
	}()
}

func (h *hub) sessionContext() context.Context { return h.ctx }

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues msg for every client. Frames are dropped for slow clients;
// a later frame supersedes them anyway. Other messages are dropped too but
// logged.
func (h *hub) broadcast(msg message, important bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			if important {
				h.log.Warnw("client too slow, message dropped", "type", msg.Type)
			}
		}
	}
}

func (h *hub) close() {
	h.session.Close()
	if h.stop != nil {
		h.stop()
	}
	h.done.Wait()
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}
