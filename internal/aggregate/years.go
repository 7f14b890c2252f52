package aggregate

import (
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// YearRange is an inclusive [Min, Max] release-year window.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the range is non-empty.
func (r YearRange) Valid() bool { return r.Min <= r.Max }

// Contains reports whether year lies in the range, bounds included.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Clamp narrows r to lie within bounds. The result may be invalid when the
// two ranges do not overlap.
func (r YearRange) Clamp(bounds YearRange) YearRange {
	if r.Min < bounds.Min {
		r.Min = bounds.Min
	}
	if r.Max > bounds.Max {
		r.Max = bounds.Max
	}
	return r
}

// YearBounds returns the earliest and latest parseable release year in
// credits. It reports false when no credit has a usable date.
func YearBounds(credits []tmdb.Credit) (YearRange, bool) {
	var r YearRange
	found := false
	for _, c := range credits {
		y, ok := c.Year()
		if !ok {
			continue
		}
		if !found {
			r = YearRange{Min: y, Max: y}
			found = true
			continue
		}
		if y < r.Min {
			r.Min = y
		}
		if y > r.Max {
			r.Max = y
		}
	}
	return r, found
}

// FilterCredits keeps credits whose year parses and lies in r, one per movie,
// in input order.
func FilterCredits(credits []tmdb.Credit, r YearRange) []tmdb.Credit {
	seen := make(map[int]bool, len(credits))
	out := make([]tmdb.Credit, 0, len(credits))
	for _, c := range credits {
		y, ok := c.Year()
		if !ok || !r.Contains(y) || seen[c.MovieID] {
			continue
		}
		seen[c.MovieID] = true
		out = append(out, c)
	}
	return out
}
