package tmdb

import "strconv"

// Image sizes used by the explorer.
const (
	ImageBase = "https://image.tmdb.org/t/p/"

	SizeNode     = "w92"
	SizeTimeline = "w154"
	SizeDetail   = "w185"
)

// ImageURL builds an image URL for a TMDB file path. An empty path yields "".
func ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return ImageBase + size + path
}

// MovieURL links to the public movie page.
func MovieURL(id int) string {
	return "https://www.themoviedb.org/movie/" + strconv.Itoa(id)
}

// PersonURL links to the public person page.
func PersonURL(id int) string {
	return "https://www.themoviedb.org/person/" + strconv.Itoa(id)
}
