package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/explorer"
	"github.com/msalah0e/castgraph/internal/selection"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

type actorView struct {
	tmdb.Actor
	Image string `json:"image,omitempty"`
	URL   string `json:"url"`
}

type creditView struct {
	tmdb.Credit
	Poster string `json:"poster,omitempty"`
	URL    string `json:"url"`
}

func viewActors(in []tmdb.Actor) []actorView {
	out := make([]actorView, len(in))
	for i, a := range in {
		out[i] = actorView{Actor: a, Image: a.Image(tmdb.SizeNode), URL: tmdb.PersonURL(a.ID)}
	}
	return out
}

func viewCredits(in []tmdb.Credit, size string) []creditView {
	out := make([]creditView, len(in))
	for i, c := range in {
		out[i] = creditView{Credit: c, Poster: tmdb.ImageURL(size, c.PosterPath), URL: tmdb.MovieURL(c.MovieID)}
	}
	return out
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tmdb.ErrNotFound), errors.Is(err, explorer.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, explorer.ErrNoFocal), errors.Is(err, explorer.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, tmdb.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, explorer.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Warnw("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func (s *Server) search(c *gin.Context) {
	results, err := tmdb.Search(c.Request.Context(), s.svc, c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": viewActors(results)})
}

func (s *Server) timeline(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	d, err := s.svc.ActorDetails(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"actor":    actorView{Actor: d.Actor, Image: d.Image(tmdb.SizeDetail), URL: tmdb.PersonURL(d.ID)},
		"timeline": viewCredits(tmdb.Timeline(d.Filmography), tmdb.SizeTimeline),
	})
}

func (s *Server) shared(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	other, ok := intParam(c, "other")
	if !ok {
		return
	}
	focal, err := s.svc.ActorDetails(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	shared, err := selection.NewInspector(s.svc).Shared(c.Request.Context(), focal, other)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"focal":  shared.Focal,
		"other":  shared.Other,
		"movies": viewCredits(shared.Movies, tmdb.SizeDetail),
	})
}

func (s *Server) createSession(c *gin.Context) {
	h := s.openSession()
	c.JSON(http.StatusCreated, gin.H{"id": h.session.ID})
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.closeSession(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) session(c *gin.Context) (*explorer.Session, bool) {
	h, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil, false
	}
	return h.session, true
}

func (s *Server) sessionGraph(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	st, ok := sess.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no focal actor selected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": st, "frame": sess.Engine().Snapshot()})
}

type selectRequest struct {
	ActorID int `json:"actor_id" binding:"required,gt=0"`
}

func (s *Server) selectActor(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := sess.Select(c.Request.Context(), req.ActorID); err != nil {
		s.fail(c, err)
		return
	}
	st, _ := sess.Current()
	c.JSON(http.StatusOK, st)
}

type rangeRequest struct {
	Min int `json:"min" binding:"required"`
	Max int `json:"max" binding:"required,gtefield=Min"`
}

func (s *Server) setRange(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := sess.SetYearRange(c.Request.Context(), aggregate.YearRange{Min: req.Min, Max: req.Max}); err != nil {
		if errors.Is(err, explorer.ErrNoFocal) || errors.Is(err, explorer.ErrSuperseded) {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	st, _ := sess.Current()
	c.JSON(http.StatusOK, st)
}

type activateRequest struct {
	NodeID int `json:"node_id" binding:"required,gt=0"`
}

func (s *Server) activate(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := sess.Activate(req.NodeID, time.Now()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, renderIndex(s.theme()))
}
