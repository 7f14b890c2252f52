package tmdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreditYear(t *testing.T) {
	tests := []struct {
		date string
		year int
		ok   bool
	}{
		{"1999-03-31", 1999, true},
		{"2004", 2004, true},
		{"", 0, false},
		{"199", 0, false},
		{"abcd-01-01", 0, false},
		{"19990331", 0, false},
		{"0000-01-01", 0, false},
	}
	for _, tt := range tests {
		y, ok := Credit{ReleaseDate: tt.date}.Year()
		assert.Equal(t, tt.ok, ok, tt.date)
		assert.Equal(t, tt.year, y, tt.date)
	}
}

func TestSortByReleaseDesc(t *testing.T) {
	credits := []Credit{
		{MovieID: 1, ReleaseDate: "2001-01-01"},
		{MovieID: 2, ReleaseDate: ""},
		{MovieID: 3, ReleaseDate: "2010-05-05"},
		{MovieID: 4, ReleaseDate: "1995-01-01"},
	}
	SortByReleaseDesc(credits)

	ids := []int{}
	for _, c := range credits {
		ids = append(ids, c.MovieID)
	}
	assert.Equal(t, []int{3, 1, 4, 2}, ids)
}

func TestTimeline(t *testing.T) {
	credits := []Credit{
		{MovieID: 1, ReleaseDate: "2001-01-01"},
		{MovieID: 2, ReleaseDate: ""},
		{MovieID: 3, ReleaseDate: "1990-05-05"},
		{MovieID: 1, ReleaseDate: "2001-01-01"},
	}
	tl := Timeline(credits)

	assert.Len(t, tl, 2)
	assert.Equal(t, 3, tl[0].MovieID)
	assert.Equal(t, 1, tl[1].MovieID)
}

func TestSharedCredits(t *testing.T) {
	focal := []Credit{
		{MovieID: 10, Title: "A", ReleaseDate: "2000-01-01"},
		{MovieID: 11, Title: "B", ReleaseDate: "2005-01-01"},
		{MovieID: 12, Title: "C", ReleaseDate: "2003-01-01"},
	}
	other := []Credit{
		{MovieID: 12, Title: "C", ReleaseDate: "2003-01-01"},
		{MovieID: 10, Title: "A", ReleaseDate: "2000-01-01"},
		{MovieID: 99, Title: "Z", ReleaseDate: "2020-01-01"},
	}

	shared := SharedCredits(focal, other)
	assert.Len(t, shared, 2)
	assert.Equal(t, 12, shared[0].MovieID)
	assert.Equal(t, 10, shared[1].MovieID)

	assert.Empty(t, SharedCredits(focal, nil))
	assert.NotNil(t, SharedCredits(nil, nil))
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w92/abc.jpg", ImageURL(SizeNode, "/abc.jpg"))
	assert.Equal(t, "", ImageURL(SizeNode, ""))
	assert.Equal(t, "https://www.themoviedb.org/movie/603", MovieURL(603))
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/p.jpg", Actor{ProfilePath: "/p.jpg"}.Image(SizeDetail))
}
