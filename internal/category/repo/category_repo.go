// Package repo provides data access for the categories table using sqlx.
package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zhangyu-521/blog-system/internal/category/entity"
)

// ErrDuplicate marks a unique-constraint violation (name or slug taken).
var ErrDuplicate = errors.New("duplicate key")

type CategoryRepo struct {
	db *sqlx.DB
}

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	const q = `INSERT INTO categories (id, name, slug, description, color, icon, sort_order)
		VALUES (:id, :name, :slug, :description, :color, :icon, :sort_order)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&c.CreatedAt, &c.UpdatedAt)
	}
	return errors.New("no row returned")
}

// List returns every category ordered by sort_order then name, with the
// number of articles filed under each.
func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	const q = `SELECT c.*, COUNT(a.id) AS article_count
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name`
	var cats []*entity.Category
	if err := r.db.SelectContext(ctx, &cats, q); err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *CategoryRepo) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	const q = `SELECT c.*, COUNT(a.id) AS article_count
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		WHERE c.id=$1
		GROUP BY c.id`
	var c entity.Category
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	const q = `SELECT c.*, COUNT(a.id) AS article_count
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		WHERE c.slug=$1
		GROUP BY c.id`
	var c entity.Category
	if err := r.db.GetContext(ctx, &c, q, slug); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	const q = `UPDATE categories SET
		name=:name, slug=:slug, description=:description, color=:color,
		icon=:icon, sort_order=:sort_order, updated_at=NOW()
		WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireRow(res)
}

// ArticleCount reports how many articles reference the category.
func (r *CategoryRepo) ArticleCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles WHERE category_id=$1`, id)
	return n, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
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
