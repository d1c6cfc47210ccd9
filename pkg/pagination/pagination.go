// Package pagination provides page/limit query parsing and response metadata
// shared by all list endpoints.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds normalized list-query parameters.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// FromQuery parses page/limit/sortBy/sortOrder from q. Values are clamped to
// sane bounds and sortBy is checked against the allow-list; anything else
// falls back to defaultSort. The allow-list keeps user input out of ORDER BY.
func FromQuery(q url.Values, defaultSort string, allowedSorts ...string) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit, SortBy: defaultSort, SortOrder: "desc"}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
		if p.Limit > MaxLimit {
			p.Limit = MaxLimit
		}
	}
	if s := q.Get("sortBy"); s != "" {
		for _, a := range allowedSorts {
			if s == a {
				p.SortBy = s
				break
			}
		}
	}
	if o := strings.ToLower(q.Get("sortOrder")); o == "asc" {
		p.SortOrder = "asc"
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewMeta computes pagination metadata for a total row count.
func NewMeta(total int64, p Params) Meta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{
		Total:       total,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

// Page pairs a page of items with its metadata.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
