package category

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/category/entity"
	catrepo "github.com/zhangyu-521/blog-system/internal/category/repo"
	"github.com/zhangyu-521/blog-system/pkg/cache"
)

type fakeRepo struct {
	byID       map[string]*entity.Category
	articles   map[string]int64
	listCalls  int
	lastDelete string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*entity.Category{}, articles: map[string]int64{}}
}

func (f *fakeRepo) Create(_ context.Context, c *entity.Category) error {
	for _, e := range f.byID {
		if e.Name == c.Name || e.Slug == c.Slug {
			return catrepo.ErrDuplicate
		}
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) List(_ context.Context) ([]*entity.Category, error) {
	f.listCalls++
	out := make([]*entity.Category, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*entity.Category, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	for _, c := range f.byID {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) Update(_ context.Context, c *entity.Category) error {
	if _, ok := f.byID[c.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, e := range f.byID {
		if id != c.ID && (e.Name == c.Name || e.Slug == c.Slug) {
			return catrepo.ErrDuplicate
		}
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) ArticleCount(_ context.Context, id string) (int64, error) {
	return f.articles[id], nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	f.lastDelete = id
	return nil
}

func TestCreateGeneratesSlug(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	c, err := svc.Create(context.Background(), Input{Name: "Go Tips & Tricks"})
	require.NoError(t, err)
	assert.Equal(t, "go-tips-tricks", c.Slug)
	assert.NotEmpty(t, c.ID)
}

func TestCreateDuplicateName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), Input{Name: "Go"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Input{Name: "Go"})
	assert.True(t, apperr.IsStatus(err, http.StatusConflict))
}

func TestDeleteRefusedWithArticles(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	c, err := svc.Create(context.Background(), Input{Name: "Go"})
	require.NoError(t, err)
	repo.articles[c.ID] = 3

	err = svc.Delete(context.Background(), c.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusConflict))
	assert.Empty(t, repo.lastDelete)
}

func TestListCachedAndInvalidated(t *testing.T) {
	repo := newFakeRepo()
	c := cache.New(time.Minute, time.Minute)
	defer c.Close()
	svc := NewService(repo, c)

	_, err := svc.Create(context.Background(), Input{Name: "Go"})
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "second list should hit the cache")

	// a write invalidates the cached list
	_, err = svc.Create(context.Background(), Input{Name: "Rust"})
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}
