package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyu-521/blog-system/internal/user/entity"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "first_name", "last_name",
		"avatar", "bio", "role", "status", "email_verified",
		"password_reset_token", "password_reset_expires", "created_at", "updated_at",
	}).AddRow(
		"u1", "bob@example.com", "bob", "hash", "", "",
		"", "", "USER", "ACTIVE", false,
		nil, nil, now, now,
	)
}

func TestFindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\$1`).
		WithArgs("bob@example.com").
		WillReturnRows(userRows())

	u, err := repo.FindByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "bob", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &entity.User{
		ID:     "u1",
		Email:  "bob@example.com",
		Role:   entity.RoleUser,
		Status: entity.StatusActive,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestConsumeResetToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("tok", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.ConsumeResetToken(context.Background(), "tok", "newhash")
	require.NoError(t, err)
	assert.True(t, ok)

	// expired or already-consumed token matches no row
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("tok", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.ConsumeResetToken(context.Background(), "tok", "newhash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateStatusNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET status=\$2`).
		WithArgs("missing", "BANNED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", entity.StatusBanned)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
