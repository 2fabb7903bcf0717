// Package listutil turns list query strings (?page=&per_page=&sort=&dir=&q=)
// into bounded parameters for the member, visitor, finance and content lists.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage applies when per_page is missing or not one of PerPageOptions.
const DefaultPerPage = 20

// maxSearchLen bounds the free-text query passed down to LIKE clauses.
const maxSearchLen = 100

// PerPageOptions are the page sizes a client may ask for.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// PageParams is a 1-based page request.
type PageParams struct {
	Page    int
	PerPage int
}

// SortParams names a whitelisted column. An empty Sort means the store's
// natural order.
type SortParams struct {
	Sort string
	Dir  string // asc or desc
}

// FilterParams holds the q search term and exact-match filters such as
// status=active or group=Choir.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// ListParams is everything a list endpoint reads from its query string.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// PageInfo is returned with every list so clients can page.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// ParsePageParams reads page and per_page, falling back to page 1 and
// DefaultPerPage for anything unusable.
func ParsePageParams(q url.Values) PageParams {
	p := PageParams{Page: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	return p
}

// ParseSortParams accepts sort only when it is one of columns.
// POST: Dir is "asc" or "desc"
func ParseSortParams(q url.Values, columns []string) SortParams {
	var s SortParams
	if col := q.Get("sort"); slices.Contains(columns, col) {
		s.Sort = col
	}
	s.Dir = "asc"
	if strings.EqualFold(q.Get("dir"), "desc") {
		s.Dir = "desc"
	}
	return s
}

// ParseFilterParams keeps only the filters named in keys.
func ParseFilterParams(q url.Values, keys []string) FilterParams {
	search := strings.TrimSpace(q.Get("q"))
	if len(search) > maxSearchLen {
		search = search[:maxSearchLen]
	}
	f := FilterParams{Search: search, Filters: map[string]string{}}
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			f.Filters[k] = v
		}
	}
	return f
}

// ParseListParams combines the three parsers.
func ParseListParams(q url.Values, sortColumns, filterKeys []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, sortColumns),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// NewPageInfo clamps page into range for a result of total rows.
// POST: TotalPages >= 1 and 1 <= Page <= TotalPages
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	page = min(max(page, 1), pages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// Offset is the SQL OFFSET for the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}
