package tmdb

import (
	"sort"
	"strconv"
)

// Actor is a person as seen through search results or a movie's cast list.
// An empty ProfilePath means the person has no portrait.
type Actor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ProfilePath string  `json:"profile_path,omitempty"`
	Popularity  float64 `json:"popularity"`
}

// Image returns the portrait URL at the given size, or "" when absent.
func (a Actor) Image(size string) string {
	return ImageURL(size, a.ProfilePath)
}

// Credit is one movie in an actor's filmography.
type Credit struct {
	MovieID     int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date,omitempty"`
	PosterPath  string `json:"poster_path,omitempty"`
	Character   string `json:"character,omitempty"`
}

// Year parses the leading four-digit year of ReleaseDate. Empty or malformed
// dates report false.
func (c Credit) Year() (int, bool) {
	if len(c.ReleaseDate) < 4 {
		return 0, false
	}
	if len(c.ReleaseDate) > 4 && c.ReleaseDate[4] != '-' {
		return 0, false
	}
	y, err := strconv.Atoi(c.ReleaseDate[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

// ActorDetails is an actor together with their biography and filmography.
type ActorDetails struct {
	Actor
	Biography   string   `json:"biography,omitempty"`
	Filmography []Credit `json:"filmography"`
}

// SortByReleaseDesc sorts credits newest first. Credits without a date sort
// last; ties keep their input order.
func SortByReleaseDesc(credits []Credit) {
	sort.SliceStable(credits, func(i, j int) bool {
		a, b := credits[i].ReleaseDate, credits[j].ReleaseDate
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
}

// Timeline returns the dated credits in ascending release order, one entry
// per movie.
func Timeline(credits []Credit) []Credit {
	seen := make(map[int]bool, len(credits))
	out := make([]Credit, 0, len(credits))
	for _, c := range credits {
		if c.ReleaseDate == "" || seen[c.MovieID] {
			continue
		}
		seen[c.MovieID] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleaseDate < out[j].ReleaseDate
	})
	return out
}

// SharedCredits returns the movies present in both filmographies, taken from
// a and deduplicated by movie id, sorted by release date descending.
func SharedCredits(a, b []Credit) []Credit {
	inB := make(map[int]bool, len(b))
	for _, c := range b {
		inB[c.MovieID] = true
	}
	seen := make(map[int]bool)
	out := make([]Credit, 0)
	for _, c := range a {
		if !inB[c.MovieID] || seen[c.MovieID] {
			continue
		}
		seen[c.MovieID] = true
		out = append(out, c)
	}
	SortByReleaseDesc(out)
	return out
}
