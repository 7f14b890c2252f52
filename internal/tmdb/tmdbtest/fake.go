// Package tmdbtest provides an in-memory tmdb.Service for tests.
package tmdbtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/castgraph/internal/tmdb"
)

// Fake serves canned actors, filmographies and casts.
type Fake struct {
	mu sync.Mutex

	Actors  map[int]tmdb.ActorDetails
	Casts   map[int][]tmdb.Actor
	CastErr map[int]error
	// Delay, when set, is applied to MovieCast for the given movie id.
	Delay map[int]time.Duration
	// Gate, when set, blocks ActorDetails for the given actor id until the
	// channel is closed or ctx ends.
	Gate map[int]chan struct{}

	castCalls    map[int]int
	detailsCalls map[int]int
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Actors:       map[int]tmdb.ActorDetails{},
		Casts:        map[int][]tmdb.Actor{},
		CastErr:      map[int]error{},
		Delay:        map[int]time.Duration{},
		Gate:         map[int]chan struct{}{},
		castCalls:    map[int]int{},
		detailsCalls: map[int]int{},
	}
}

// AddActor registers an actor and their filmography.
func (f *Fake) AddActor(a tmdb.Actor, credits ...tmdb.Credit) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Actors[a.ID] = tmdb.ActorDetails{Actor: a, Filmography: credits}
	return f
}

// SetCast registers the cast of a movie.
func (f *Fake) SetCast(movieID int, cast ...tmdb.Actor) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Casts[movieID] = cast
	return f
}

func (f *Fake) SearchActors(_ context.Context, query string) ([]tmdb.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []tmdb.Actor{}
	for _, d := range f.Actors {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(query)) {
			out = append(out, d.Actor)
		}
	}
	return out, nil
}

func (f *Fake) ActorDetails(ctx context.Context, id int) (tmdb.ActorDetails, error) {
	f.mu.Lock()
	f.detailsCalls[id]++
	gate := f.Gate[id]
	d, ok := f.Actors[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return tmdb.ActorDetails{}, ctx.Err()
		}
	}
	if !ok {
		return tmdb.ActorDetails{}, tmdb.ErrNotFound
	}
	d.Filmography = append([]tmdb.Credit(nil), d.Filmography...)
	return d, nil
}

func (f *Fake) MovieCast(ctx context.Context, movieID int) ([]tmdb.Actor, error) {
	f.mu.Lock()
	f.castCalls[movieID]++
	delay := f.Delay[movieID]
	err := f.CastErr[movieID]
	cast := append([]tmdb.Actor(nil), f.Casts[movieID]...)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return cast, nil
}

// CastCalls reports how often MovieCast was called for movieID.
func (f *Fake) CastCalls(movieID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.castCalls[movieID]
}

// DetailsCalls reports how often ActorDetails was called for id.
func (f *Fake) DetailsCalls(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailsCalls[id]
}

var _ tmdb.Service = (*Fake)(nil)
