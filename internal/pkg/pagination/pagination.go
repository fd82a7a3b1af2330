package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Params is a 1-based page request
type Params struct {
	Page int
	Size int
}

// FromRequest reads page and size query parameters, clamping them to sane values
func FromRequest(r *http.Request) Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return New(page, size)
}

// New normalizes page and size
func New(page, size int) Params {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Params{Page: page, Size: size}
}

// Offset returns the row offset of the page
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}
