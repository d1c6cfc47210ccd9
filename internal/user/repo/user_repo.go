// Package repo provides data access for the users table using sqlx.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zhangyu-521/blog-system/internal/user/entity"
)

// ErrDuplicate marks a unique-constraint violation (email or username taken).
var ErrDuplicate = errors.New("duplicate key")

const userColumns = `id, email, username, password_hash, first_name, last_name,
	avatar, bio, role, status, email_verified,
	password_reset_token, password_reset_expires, created_at, updated_at`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts a new user row. Returns ErrDuplicate when the email or
// username unique constraint rejects the insert.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users
		(id, email, username, password_hash, first_name, last_name, avatar, bio, role, status, email_verified)
		VALUES (:id, :email, :username, :password_hash, :first_name, :last_name, :avatar, :bio, :role, :status, :email_verified)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&u.CreatedAt, &u.UpdatedAt)
	}
	return errors.New("no row returned")
}

// FindByEmail matches case-insensitively (citext column) or returns
// sql.ErrNoRows.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	q := fmt.Sprintf(`SELECT %s FROM users WHERE email=$1`, userColumns)
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	q := fmt.Sprintf(`SELECT %s FROM users WHERE username=$1`, userColumns)
	if err := r.db.GetContext(ctx, &u, q, username); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	q := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Search        string
	Role          entity.Role
	Status        entity.Status
	EmailVerified *bool
}

// List returns a page of users plus the total row count for the filter.
func (r *UserRepo) List(ctx context.Context, f ListFilter, sortBy, sortOrder string, limit, offset int) ([]*entity.User, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(
			"(username ILIKE %[1]s OR email::text ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s)", p))
	}
	if f.Role != "" {
		where = append(where, "role="+arg(string(f.Role)))
	}
	if f.Status != "" {
		where = append(where, "status="+arg(string(f.Status)))
	}
	if f.EmailVerified != nil {
		where = append(where, "email_verified="+arg(*f.EmailVerified))
	}

	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	// sortBy/sortOrder come from a pagination allow-list, never raw input
	q := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s",
		userColumns, cond, sortBy, strings.ToUpper(sortOrder), arg(limit), arg(offset))
	var users []*entity.User
	if err := r.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile applies profile fields; username uniqueness is enforced by
// the DB and surfaced as ErrDuplicate.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET
		username=:username, first_name=:first_name, last_name=:last_name,
		avatar=:avatar, bio=:bio, updated_at=NOW()
		WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireRow(res)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *UserRepo) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	const q = `UPDATE users SET status=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetResetToken stores a password-reset token and its expiry as a pair.
func (r *UserRepo) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	const q = `UPDATE users SET password_reset_token=$2, password_reset_expires=$3, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, token, expires)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ConsumeResetToken sets the new password hash and clears the reset token in
// one conditional UPDATE. It succeeds only while the token matches and has
// not expired, so a token can never be used twice.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	const q = `UPDATE users SET
		password_hash=$2, password_reset_token=NULL, password_reset_expires=NULL, updated_at=NOW()
		WHERE password_reset_token=$1 AND password_reset_expires > NOW()`
	res, err := r.db.ExecContext(ctx, q, token, passwordHash)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Stats returns the article and comment counts for a user.
func (r *UserRepo) Stats(ctx context.Context, id string) (articles int64, comments int64, err error) {
	if err = r.db.GetContext(ctx, &articles, `SELECT COUNT(*) FROM articles WHERE author_id=$1`, id); err != nil {
		return 0, 0, err
	}
	if err = r.db.GetContext(ctx, &comments, `SELECT COUNT(*) FROM comments WHERE author_id=$1`, id); err != nil {
		return 0, 0, err
	}
	return articles, comments, nil
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
