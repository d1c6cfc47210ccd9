// Package repo provides data access for the comments table using sqlx.
package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/zhangyu-521/blog-system/internal/comment/entity"
)

type CommentRepo struct {
	db *sqlx.DB
}

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	const q = `INSERT INTO comments
		(id, content, status, article_id, author_id, parent_id, ip_address, user_agent)
		VALUES (:id, :content, :status, :article_id, :author_id, :parent_id, :ip_address, :user_agent)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&c.CreatedAt, &c.UpdatedAt)
	}
	return sql.ErrNoRows
}

func (r *CommentRepo) FindByID(ctx context.Context, id string) (*entity.Comment, error) {
	var c entity.Comment
	if err := r.db.GetContext(ctx, &c, `SELECT * FROM comments WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListApprovedByArticle returns the article's approved comments oldest first.
// Replies are folded under their top-level parent.
func (r *CommentRepo) ListApprovedByArticle(ctx context.Context, articleID string) ([]*entity.Comment, error) {
	var flat []*entity.Comment
	const q = `SELECT * FROM comments
		WHERE article_id=$1 AND status='APPROVED'
		ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &flat, q, articleID); err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}
	roots := make([]*entity.Comment, 0, len(flat))
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		} else {
			// parent not approved; surface the reply at top level
			roots = append(roots, c)
		}
	}
	return roots, nil
}

// ListByStatus returns a moderation page of comments plus the total count.
func (r *CommentRepo) ListByStatus(ctx context.Context, status entity.Status, limit, offset int) ([]*entity.Comment, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM comments WHERE status=$1`, string(status)); err != nil {
		return nil, 0, err
	}
	var comments []*entity.Comment
	const q = `SELECT * FROM comments WHERE status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &comments, q, string(status), limit, offset); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepo) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, id)
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
