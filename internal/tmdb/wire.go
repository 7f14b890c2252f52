package tmdb

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Wire structs mirror the API payloads. Nothing outside this file sees them.

type wirePerson struct {
	ID          int     `json:"id" validate:"gt=0"`
	Name        string  `json:"name" validate:"required"`
	ProfilePath *string `json:"profile_path"`
	Popularity  float64 `json:"popularity" validate:"gte=0"`
	Biography   string  `json:"biography"`
	Department  string  `json:"known_for_department"`

	MovieCredits *struct {
		Cast []wireCredit `json:"cast"`
	} `json:"movie_credits"`
}

type wireCredit struct {
	ID          int     `json:"id" validate:"gt=0"`
	Title       string  `json:"title" validate:"required"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	Character   string  `json:"character"`
}

type wireSearch struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Results      []wirePerson `json:"results"`
}

type wireMovieCredits struct {
	ID   int          `json:"id"`
	Cast []wirePerson `json:"cast"`
}

type wireError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (p wirePerson) actor() (Actor, error) {
	if err := validate.Struct(p); err != nil {
		return Actor{}, errors.Mark(errors.Wrapf(err, "person %d", p.ID), ErrInvalid)
	}
	return Actor{
		ID:          p.ID,
		Name:        strings.TrimSpace(p.Name),
		ProfilePath: deref(p.ProfilePath),
		Popularity:  p.Popularity,
	}, nil
}

func (c wireCredit) credit() (Credit, bool) {
	if err := validate.Struct(c); err != nil {
		return Credit{}, false
	}
	return Credit{
		MovieID:     c.ID,
		Title:       strings.TrimSpace(c.Title),
		ReleaseDate: strings.TrimSpace(c.ReleaseDate),
		PosterPath:  deref(c.PosterPath),
		Character:   c.Character,
	}, true
}

// actors converts a list, dropping invalid members.
func actors(in []wirePerson) []Actor {
	out := make([]Actor, 0, len(in))
	for _, p := range in {
		a, err := p.actor()
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// details converts a person payload. An invalid top-level record is an error;
// invalid credits are dropped.
func (p wirePerson) details() (ActorDetails, error) {
	a, err := p.actor()
	if err != nil {
		return ActorDetails{}, err
	}
	d := ActorDetails{Actor: a, Biography: p.Biography, Filmography: []Credit{}}
	if p.MovieCredits != nil {
		for _, wc := range p.MovieCredits.Cast {
			if c, ok := wc.credit(); ok {
				d.Filmography = append(d.Filmography, c)
			}
		}
	}
	return d, nil
}
