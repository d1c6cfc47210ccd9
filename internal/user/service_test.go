package user

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/auth"
	"github.com/zhangyu-521/blog-system/internal/user/entity"
	userrepo "github.com/zhangyu-521/blog-system/internal/user/repo"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
)

type fakeRepo struct {
	byID map[string]*entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*entity.User{}}
}

func (f *fakeRepo) Create(_ context.Context, u *entity.User) error {
	for _, e := range f.byID {
		if e.Email == u.Email || e.Username == u.Username {
			return userrepo.ErrDuplicate
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter userrepo.ListFilter, _, _ string, limit, offset int) ([]*entity.User, int64, error) {
	var all []*entity.User
	for _, u := range f.byID {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		all = append(all, u)
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

func (f *fakeRepo) UpdateProfile(_ context.Context, u *entity.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, e := range f.byID {
		if id != u.ID && e.Username == u.Username {
			return userrepo.ErrDuplicate
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status entity.Status) error {
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) Stats(_ context.Context, id string) (int64, int64, error) {
	return 2, 5, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, auth.BcryptHasher{Cost: 4}), repo
}

func mustCreate(t *testing.T, svc *Service, email, username string, role entity.Role) *entity.PublicUser {
	t.Helper()
	u, err := svc.Create(context.Background(), CreateInput{
		Email:    email,
		Username: username,
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestAdminCreateSetsRole(t *testing.T) {
	svc, _ := newTestService()

	u := mustCreate(t, svc, "mod@example.com", "moderator", entity.RoleModerator)
	assert.Equal(t, entity.RoleModerator, u.Role)
	assert.Equal(t, entity.StatusActive, u.Status)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	mustCreate(t, svc, "bob@example.com", "bob", "")
	_, err := svc.Create(context.Background(), CreateInput{
		Email:    "bob@example.com",
		Username: "other",
		Password: "secret1",
	})
	assert.True(t, apperr.IsStatus(err, http.StatusConflict))
}

func TestUpdateForbiddenForOtherUser(t *testing.T) {
	svc, _ := newTestService()

	u := mustCreate(t, svc, "bob@example.com", "bob", "")
	name := "newname"

	_, err := svc.Update(context.Background(), u.ID, UpdateInput{Username: &name}, "other", entity.RoleUser)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden))

	// self update works
	got, err := svc.Update(context.Background(), u.ID, UpdateInput{Username: &name}, u.ID, entity.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "newname", got.Username)

	// admin can update anyone
	name2 := "adminset"
	got, err = svc.Update(context.Background(), u.ID, UpdateInput{Username: &name2}, "admin", entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "adminset", got.Username)
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestService()

	u := mustCreate(t, svc, "bob@example.com", "bob", "")

	err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newsecret")
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	err = svc.ChangePassword(context.Background(), u.ID, "secret1", "secret1")
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest), "same password rejected")

	err = svc.ChangePassword(context.Background(), u.ID, "secret1", "newsecret")
	require.NoError(t, err)

	hasher := auth.BcryptHasher{Cost: 4}
	assert.True(t, hasher.Compare(repo.byID[u.ID].PasswordHash, "newsecret"))
}

func TestUpdateStatus(t *testing.T) {
	svc, _ := newTestService()

	u := mustCreate(t, svc, "bob@example.com", "bob", "")

	got, err := svc.UpdateStatus(context.Background(), u.ID, entity.StatusBanned)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBanned, got.Status)

	_, err = svc.UpdateStatus(context.Background(), u.ID, "FROZEN")
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	_, err = svc.UpdateStatus(context.Background(), "missing", entity.StatusActive)
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestListSanitizes(t *testing.T) {
	svc, _ := newTestService()

	mustCreate(t, svc, "bob@example.com", "bob", "")
	page, err := svc.List(context.Background(), userrepo.ListFilter{},
		pagination.Params{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Meta.Total)
}

func TestStats(t *testing.T) {
	svc, _ := newTestService()

	u := mustCreate(t, svc, "bob@example.com", "bob", "")
	st, err := svc.GetStats(context.Background(), u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.ArticleCount)
	assert.EqualValues(t, 5, st.CommentCount)
}
