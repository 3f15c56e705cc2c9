// Package directory implements the filterable, paginated list behind the camera and user
// directory screens.
package directory

import (
	"strings"

	"guardly-cli/pkg/models"
)

// DefaultPageSize matches the list screens' initial rows-per-page.
const DefaultPageSize = 5

// Matcher returns the lowercase fields an item is searched on.
type Matcher[T any] func(item T) []string

// CameraMatcher searches location and IP address.
func CameraMatcher(c models.Camera) []string { return c.SearchText() }

// UserMatcher searches display name and email.
func UserMatcher(u models.User) []string { return u.SearchText() }

// Directory keeps the unfiltered collection, the filtered copy and the paging cursor.
// Pagination always runs over the filtered copy.
type Directory[T any] struct {
	match    Matcher[T]
	all      []T
	filtered []T
	term     string
	page     int
	size     int

	// Err holds the last load failure so views can show it instead of an empty table.
	Err error
}

func New[T any](match Matcher[T], pageSize int) *Directory[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Directory[T]{match: match, size: pageSize}
}

// Load replaces the collection, re-applies the current term and resets to page 0.
func (d *Directory[T]) Load(items []T) {
	d.all = items
	d.Err = nil
	d.filtered = Filter(d.all, d.term, d.match)
	d.page = 0
}

// Fail records a load error and clears the rows.
func (d *Directory[T]) Fail(err error) {
	d.all, d.filtered, d.page = nil, nil, 0
	d.Err = err
}

// SetFilter recomputes the filtered copy and resets to page 0.
func (d *Directory[T]) SetFilter(term string) {
	d.term = term
	d.filtered = Filter(d.all, term, d.match)
	d.page = 0
}

// SetPageSize changes rows per page and resets to page 0.
func (d *Directory[T]) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	d.size = n
	d.page = 0
}

// SetPage moves the cursor, clamped to [0, PageCount()-1].
func (d *Directory[T]) SetPage(p int) {
	last := d.PageCount() - 1
	if p > last {
		p = last
	}
	if p < 0 {
		p = 0
	}
	d.page = p
}

func (d *Directory[T]) Term() string  { return d.term }
func (d *Directory[T]) Page() int     { return d.page }
func (d *Directory[T]) PageSize() int { return d.size }
func (d *Directory[T]) Total() int    { return len(d.filtered) }

// PageCount is at least 1 so an empty directory still has a page 0.
func (d *Directory[T]) PageCount() int {
	if len(d.filtered) == 0 {
		return 1
	}
	return (len(d.filtered) + d.size - 1) / d.size
}

// Rows returns the items on the current page.
func (d *Directory[T]) Rows() []T {
	start := d.page * d.size
	if start >= len(d.filtered) {
		return nil
	}
	end := start + d.size
	if end > len(d.filtered) {
		end = len(d.filtered)
	}
	return d.filtered[start:end]
}

// EmptyRows is the number of padding rows that keep a short last page at full height.
// Page 0 is never padded.
func (d *Directory[T]) EmptyRows() int {
	if d.page == 0 {
		return 0
	}
	return max(0, (d.page+1)*d.size-len(d.filtered))
}

// Filter is the pure filtering step: case-insensitive substring match of term against any
// field returned by match. An empty term keeps everything.
func Filter[T any](items []T, term string, match Matcher[T]) []T {
	term = strings.ToLower(term)
	if term == "" {
		return append([]T(nil), items...)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, field := range match(it) {
			if strings.Contains(field, term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
