package article

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/article/entity"
	artrepo "github.com/zhangyu-521/blog-system/internal/article/repo"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
)

type fakeRepo struct {
	byID map[string]*entity.Article
	tags map[string][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*entity.Article{}, tags: map[string][]string{}}
}

func (f *fakeRepo) Create(_ context.Context, a *entity.Article) error {
	for _, e := range f.byID {
		if e.Slug == a.Slug {
			return artrepo.ErrDuplicate
		}
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, a := range f.byID {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) List(_ context.Context, filter artrepo.ListFilter, _, _ string, limit, offset int) ([]*entity.Article, int64, error) {
	var all []*entity.Article
	for _, a := range f.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		all = append(all, a)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*entity.Article, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) FindBySlug(_ context.Context, slug string) (*entity.Article, error) {
	for _, a := range f.byID {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) Update(_ context.Context, a *entity.Article) error {
	if _, ok := f.byID[a.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, e := range f.byID {
		if id != a.ID && e.Slug == a.Slug {
			return artrepo.ErrDuplicate
		}
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) IncrementViews(_ context.Context, id string) error {
	if a, ok := f.byID[id]; ok {
		a.ViewCount++
	}
	return nil
}

func (f *fakeRepo) IncrementLikes(_ context.Context, id string) (int64, error) {
	a, ok := f.byID[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	a.LikeCount++
	return a.LikeCount, nil
}

func (f *fakeRepo) ReplaceTags(_ context.Context, articleID string, tagIDs []string) error {
	f.tags[articleID] = tagIDs
	return nil
}

func strptr(s string) *string { return &s }

func paginationParams(page, limit int) pagination.Params {
	return pagination.Params{Page: page, Limit: limit, SortBy: "createdAt", SortOrder: "desc"}
}

func TestCreateSlugFromTitle(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(), CreateInput{Title: "My First Post!", Content: "body"}, "author-1")
	require.NoError(t, err)
	assert.Equal(t, "my-first-post", a.Slug)
	assert.Equal(t, entity.StatusDraft, a.Status)
	assert.Nil(t, a.PublishedAt)
	assert.True(t, a.AllowComments)
}

func TestCreateSlugUniquifiedBySuffix(t *testing.T) {
	svc := NewService(newFakeRepo())

	for i, want := range []string{"same-title", "same-title-2", "same-title-3"} {
		a, err := svc.Create(context.Background(), CreateInput{Title: "Same Title", Content: "body"}, "author-1")
		require.NoError(t, err, "create %d", i)
		assert.Equal(t, want, a.Slug)
	}
}

func TestCreatePublishedStampsPublishedAt(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(),
		CreateInput{Title: "Live", Content: "body", Status: "PUBLISHED"}, "author-1")
	require.NoError(t, err)
	require.NotNil(t, a.PublishedAt)
}

func TestGetBySlugIncrementsViews(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Title: "Popular", Content: "body"}, "author-1")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		a, err := svc.GetBySlug(context.Background(), "popular")
		require.NoError(t, err)
		assert.Equal(t, int64(i), a.ViewCount)
	}
	stored, _ := repo.FindByID(context.Background(), created.ID)
	assert.Equal(t, int64(3), stored.ViewCount)
}

func TestUpdateOwnership(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(), CreateInput{Title: "Mine", Content: "body"}, "author-1")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), a.ID,
		UpdateInput{Content: strptr("edited")}, "someone-else", userentity.RoleUser)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden))

	got, err := svc.Update(context.Background(), a.ID,
		UpdateInput{Content: strptr("edited")}, "someone-else", userentity.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
}

func TestUpdatePublishedAtSetOnce(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(), CreateInput{Title: "Draft", Content: "body"}, "author-1")
	require.NoError(t, err)

	pub, err := svc.Update(context.Background(), a.ID,
		UpdateInput{Status: strptr("PUBLISHED")}, "author-1", userentity.RoleUser)
	require.NoError(t, err)
	require.NotNil(t, pub.PublishedAt)
	first := *pub.PublishedAt

	// archive and re-publish; the original stamp survives
	_, err = svc.Update(context.Background(), a.ID,
		UpdateInput{Status: strptr("ARCHIVED")}, "author-1", userentity.RoleUser)
	require.NoError(t, err)
	again, err := svc.Update(context.Background(), a.ID,
		UpdateInput{Status: strptr("PUBLISHED")}, "author-1", userentity.RoleUser)
	require.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(first))
}

func TestDeleteOwnership(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(), CreateInput{Title: "Mine", Content: "body"}, "author-1")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), a.ID, "mod", userentity.RoleModerator)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden), "moderators may not delete")

	err = svc.Delete(context.Background(), a.ID, "admin", userentity.RoleAdmin)
	require.NoError(t, err)
}

func TestLike(t *testing.T) {
	svc := NewService(newFakeRepo())

	a, err := svc.Create(context.Background(), CreateInput{Title: "Likable", Content: "body"}, "author-1")
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		likes, err := svc.Like(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, want, likes)
	}

	_, err = svc.Like(context.Background(), "missing")
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestUpdateTags(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	a, err := svc.Create(context.Background(),
		CreateInput{Title: "Tagged", Content: "body", TagIDs: []string{"t1", "t2"}}, "author-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, repo.tags[a.ID])

	_, err = svc.Update(context.Background(), a.ID,
		UpdateInput{TagIDs: []string{"t3"}}, "author-1", userentity.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, repo.tags[a.ID])
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{Content: "body"}},
		{"missing content", CreateInput{Title: "T"}},
		{"bad status", CreateInput{Title: "T", Content: "body", Status: "LIVE"}},
		{"unusable slug", CreateInput{Title: "!!!", Content: "body"}},
	}
	for _, c := range cases {
		_, err := svc.Create(context.Background(), c.in, "author-1")
		assert.True(t, apperr.IsStatus(err, http.StatusBadRequest), c.name)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc := NewService(newFakeRepo())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(),
			CreateInput{Title: fmt.Sprintf("Draft %d", i), Content: "body"}, "author-1")
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(),
		CreateInput{Title: "Live", Content: "body", Status: "PUBLISHED"}, "author-1")
	require.NoError(t, err)

	page, err := svc.List(context.Background(),
		artrepo.ListFilter{Status: entity.StatusPublished},
		paginationParams(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)

	_, err = svc.List(context.Background(),
		artrepo.ListFilter{Status: "BOGUS"}, paginationParams(1, 10))
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))
}
