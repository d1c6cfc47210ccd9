package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromQuery_Defaults(t *testing.T) {
	p := FromQuery(url.Values{}, "createdAt", "createdAt", "title")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "createdAt", p.SortBy)
	assert.Equal(t, "desc", p.SortOrder)
	assert.Equal(t, 0, p.Offset())
}

func TestFromQuery_ClampsAndAllowList(t *testing.T) {
	q := url.Values{}
	q.Set("page", "3")
	q.Set("limit", "500")
	q.Set("sortBy", "password_hash") // not allow-listed
	q.Set("sortOrder", "ASC")

	p := FromQuery(q, "createdAt", "createdAt", "title")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, "createdAt", p.SortBy)
	assert.Equal(t, "asc", p.SortOrder)
	assert.Equal(t, 200, p.Offset())
}

func TestFromQuery_InvalidNumbers(t *testing.T) {
	q := url.Values{}
	q.Set("page", "-2")
	q.Set("limit", "abc")

	p := FromQuery(q, "createdAt")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(25, Params{Page: 2, Limit: 10})
	assert.Equal(t, int64(25), m.Total)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNextPage)
	assert.True(t, m.HasPrevPage)

	last := NewMeta(25, Params{Page: 3, Limit: 10})
	assert.False(t, last.HasNextPage)

	empty := NewMeta(0, Params{Page: 1, Limit: 10})
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}
