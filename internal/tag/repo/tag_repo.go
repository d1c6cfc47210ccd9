// Package repo provides data access for the tags table using sqlx.
package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zhangyu-521/blog-system/internal/tag/entity"
)

// ErrDuplicate marks a unique-constraint violation (name or slug taken).
var ErrDuplicate = errors.New("duplicate key")

type TagRepo struct {
	db *sqlx.DB
}

func NewTagRepo(db *sqlx.DB) *TagRepo { return &TagRepo{db: db} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *TagRepo) Create(ctx context.Context, t *entity.Tag) error {
	const q = `INSERT INTO tags (id, name, slug, description, color)
		VALUES (:id, :name, :slug, :description, :color)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, t)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&t.CreatedAt, &t.UpdatedAt)
	}
	return errors.New("no row returned")
}

// List returns every tag, most used first.
func (r *TagRepo) List(ctx context.Context) ([]*entity.Tag, error) {
	var tags []*entity.Tag
	if err := r.db.SelectContext(ctx, &tags, `SELECT * FROM tags ORDER BY use_count DESC, name`); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepo) FindByID(ctx context.Context, id string) (*entity.Tag, error) {
	var t entity.Tag
	if err := r.db.GetContext(ctx, &t, `SELECT * FROM tags WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) FindBySlug(ctx context.Context, slug string) (*entity.Tag, error) {
	var t entity.Tag
	if err := r.db.GetContext(ctx, &t, `SELECT * FROM tags WHERE slug=$1`, slug); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) Update(ctx context.Context, t *entity.Tag) error {
	const q = `UPDATE tags SET
		name=:name, slug=:slug, description=:description, color=:color, updated_at=NOW()
		WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, t)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireRow(res)
}

func (r *TagRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
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
