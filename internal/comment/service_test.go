package comment

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	articleentity "github.com/zhangyu-521/blog-system/internal/article/entity"
	"github.com/zhangyu-521/blog-system/internal/comment/entity"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
)

type fakeRepo struct {
	byID map[string]*entity.Comment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*entity.Comment{}}
}

func (f *fakeRepo) Create(_ context.Context, c *entity.Comment) error {
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*entity.Comment, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListApprovedByArticle(_ context.Context, articleID string) ([]*entity.Comment, error) {
	var out []*entity.Comment
	for _, c := range f.byID {
		if c.ArticleID == articleID && c.Status == entity.StatusApproved {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByStatus(_ context.Context, status entity.Status, limit, offset int) ([]*entity.Comment, int64, error) {
	var out []*entity.Comment
	for _, c := range f.byID {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status entity.Status) error {
	c, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = status
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

type fakeArticles struct {
	byID map[string]*articleentity.Article
}

func (f *fakeArticles) Get(_ context.Context, id string) (*articleentity.Article, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("article not found")
	}
	return a, nil
}

func newTestService() (*Service, *fakeRepo, *fakeArticles) {
	repo := newFakeRepo()
	articles := &fakeArticles{byID: map[string]*articleentity.Article{
		"a1": {ID: "a1", AllowComments: true},
		"a2": {ID: "a2", AllowComments: true},
		"a3": {ID: "a3", AllowComments: false},
	}}
	return NewService(repo, articles), repo, articles
}

func TestCreateStartsPending(t *testing.T) {
	svc, _, _ := newTestService()

	c, err := svc.Create(context.Background(),
		CreateInput{Content: "nice post", ArticleID: "a1"}, "u1",
		RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, c.Status)
	assert.Equal(t, "u1", c.AuthorID)
	assert.Equal(t, "10.0.0.1", c.IPAddress)
}

func TestCreateRejectsUnknownArticle(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(),
		CreateInput{Content: "hi", ArticleID: "missing"}, "u1", RequestMeta{})
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestCreateRejectsCommentsDisabled(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(),
		CreateInput{Content: "hi", ArticleID: "a3"}, "u1", RequestMeta{})
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))
}

func TestReplyMustShareArticle(t *testing.T) {
	svc, _, _ := newTestService()

	parent, err := svc.Create(context.Background(),
		CreateInput{Content: "parent", ArticleID: "a1"}, "u1", RequestMeta{})
	require.NoError(t, err)

	// reply on the parent's article works
	reply, err := svc.Create(context.Background(),
		CreateInput{Content: "reply", ArticleID: "a1", ParentID: &parent.ID}, "u2", RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)

	// same parent, different article is rejected
	_, err = svc.Create(context.Background(),
		CreateInput{Content: "reply", ArticleID: "a2", ParentID: &parent.ID}, "u2", RequestMeta{})
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	// unknown parent
	missing := "nope"
	_, err = svc.Create(context.Background(),
		CreateInput{Content: "reply", ArticleID: "a1", ParentID: &missing}, "u2", RequestMeta{})
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestModerate(t *testing.T) {
	svc, _, _ := newTestService()

	c, err := svc.Create(context.Background(),
		CreateInput{Content: "pending", ArticleID: "a1"}, "u1", RequestMeta{})
	require.NoError(t, err)

	got, err := svc.Moderate(context.Background(), c.ID, entity.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)

	_, err = svc.Moderate(context.Background(), c.ID, "BOGUS")
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	_, err = svc.Moderate(context.Background(), "missing", entity.StatusApproved)
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestDeletePermissions(t *testing.T) {
	svc, repo, _ := newTestService()

	c, err := svc.Create(context.Background(),
		CreateInput{Content: "mine", ArticleID: "a1"}, "u1", RequestMeta{})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), c.ID, "someone-else", userentity.RoleUser)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden))

	err = svc.Delete(context.Background(), c.ID, "someone-else", userentity.RoleModerator)
	require.NoError(t, err)
	_, ok := repo.byID[c.ID]
	assert.False(t, ok)
}
