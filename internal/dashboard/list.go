package dashboard

import (
	"net/url"
	"strconv"

	"guardly-cli/internal/directory"
)

var pageSizes = []int{5, 10, 25}

// listView is the template data of a directory screen.
type listView struct {
	Base      string
	Query     string
	Page      int
	PageSize  int
	PageCount int
	Total     int
	Rows      any
	Padding   []struct{}
	Err       error
	Sizes     []int
}

// applyQuery replays ?size=&q=&page= in the order the screen would: size and filter
// both reset the page, so page is applied last.
func applyQuery[T any](d *directory.Directory[T], q url.Values) {
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		d.SetPageSize(n)
	}
	d.SetFilter(q.Get("q"))
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		d.SetPage(p)
	}
}

func newListView[T any](d *directory.Directory[T], base string) listView {
	return listView{
		Base:      base,
		Query:     d.Term(),
		Page:      d.Page(),
		PageSize:  d.PageSize(),
		PageCount: d.PageCount(),
		Total:     d.Total(),
		Rows:      d.Rows(),
		Padding:   make([]struct{}, d.EmptyRows()),
		Err:       d.Err,
		Sizes:     pageSizes,
	}
}
