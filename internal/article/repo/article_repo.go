// Package repo provides data access for articles and their tag links using
// sqlx.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zhangyu-521/blog-system/internal/article/entity"
	tagentity "github.com/zhangyu-521/blog-system/internal/tag/entity"
)

// ErrDuplicate marks a unique-constraint violation (slug taken).
var ErrDuplicate = errors.New("duplicate key")

const articleColumns = `id, title, slug, content, excerpt, cover_image, status,
	view_count, like_count, meta_title, meta_description, meta_keywords,
	published_at, allow_comments, is_pinned, is_featured, author_id,
	category_id, created_at, updated_at`

type ArticleRepo struct {
	db *sqlx.DB
}

func NewArticleRepo(db *sqlx.DB) *ArticleRepo { return &ArticleRepo{db: db} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *ArticleRepo) Create(ctx context.Context, a *entity.Article) error {
	const q = `INSERT INTO articles
		(id, title, slug, content, excerpt, cover_image, status, meta_title,
		 meta_description, meta_keywords, published_at, allow_comments,
		 is_pinned, is_featured, author_id, category_id)
		VALUES (:id, :title, :slug, :content, :excerpt, :cover_image, :status,
		 :meta_title, :meta_description, :meta_keywords, :published_at,
		 :allow_comments, :is_pinned, :is_featured, :author_id, :category_id)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&a.CreatedAt, &a.UpdatedAt)
	}
	return errors.New("no row returned")
}

// SlugExists reports whether any article already uses slug.
func (r *ArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM articles WHERE slug=$1)`, slug)
	return exists, err
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Search     string
	Status     entity.Status
	CategoryID string
	TagID      string
	AuthorID   string
	Pinned     *bool
	Featured   *bool
}

// List returns a page of articles plus the total row count for the filter.
// Tags are loaded in a second query keyed by the page's article IDs.
func (r *ArticleRepo) List(ctx context.Context, f ListFilter, sortBy, sortOrder string, limit, offset int) ([]*entity.Article, int64, error) {
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
		where = append(where, fmt.Sprintf("(title ILIKE %[1]s OR content ILIKE %[1]s OR excerpt ILIKE %[1]s)", p))
	}
	if f.Status != "" {
		where = append(where, "status="+arg(string(f.Status)))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id="+arg(f.CategoryID))
	}
	if f.AuthorID != "" {
		where = append(where, "author_id="+arg(f.AuthorID))
	}
	if f.TagID != "" {
		where = append(where, "id IN (SELECT article_id FROM article_tags WHERE tag_id="+arg(f.TagID)+")")
	}
	if f.Pinned != nil {
		where = append(where, "is_pinned="+arg(*f.Pinned))
	}
	if f.Featured != nil {
		where = append(where, "is_featured="+arg(*f.Featured))
	}

	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM articles WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	// sortBy/sortOrder come from a pagination allow-list, never raw input
	q := fmt.Sprintf("SELECT %s FROM articles WHERE %s ORDER BY is_pinned DESC, %s %s LIMIT %s OFFSET %s",
		articleColumns, cond, sortBy, strings.ToUpper(sortOrder), arg(limit), arg(offset))
	var articles []*entity.Article
	if err := r.db.SelectContext(ctx, &articles, q, args...); err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (r *ArticleRepo) FindByID(ctx context.Context, id string) (*entity.Article, error) {
	var a entity.Article
	q := fmt.Sprintf(`SELECT %s FROM articles WHERE id=$1`, articleColumns)
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*entity.Article{&a}); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepo) FindBySlug(ctx context.Context, slug string) (*entity.Article, error) {
	var a entity.Article
	q := fmt.Sprintf(`SELECT %s FROM articles WHERE slug=$1`, articleColumns)
	if err := r.db.GetContext(ctx, &a, q, slug); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*entity.Article{&a}); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepo) Update(ctx context.Context, a *entity.Article) error {
	const q = `UPDATE articles SET
		title=:title, slug=:slug, content=:content, excerpt=:excerpt,
		cover_image=:cover_image, status=:status, meta_title=:meta_title,
		meta_description=:meta_description, meta_keywords=:meta_keywords,
		published_at=:published_at, allow_comments=:allow_comments,
		is_pinned=:is_pinned, is_featured=:is_featured,
		category_id=:category_id, updated_at=NOW()
		WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireRow(res)
}

func (r *ArticleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// IncrementViews bumps the view counter without touching updated_at.
func (r *ArticleRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE articles SET view_count=view_count+1 WHERE id=$1`, id)
	return err
}

// IncrementLikes bumps the like counter and returns the new value.
func (r *ArticleRepo) IncrementLikes(ctx context.Context, id string) (int64, error) {
	var likes int64
	err := r.db.GetContext(ctx, &likes,
		`UPDATE articles SET like_count=like_count+1 WHERE id=$1 RETURNING like_count`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sql.ErrNoRows
	}
	return likes, err
}

// ReplaceTags swaps the article's tag links for tagIDs inside a transaction,
// keeping tags.use_count in step with the link table.
func (r *ArticleRepo) ReplaceTags(ctx context.Context, articleID string, tagIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tags SET use_count=use_count-1
		 WHERE id IN (SELECT tag_id FROM article_tags WHERE article_id=$1)`, articleID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id=$1`, articleID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2)`, articleID, tagID); err != nil {
			return err
		}
	}
	if len(tagIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tags SET use_count=use_count+1 WHERE id = ANY($1)`, pq.Array(tagIDs)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// attachTags fills Tags for each article in one query.
func (r *ArticleRepo) attachTags(ctx context.Context, articles []*entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	ids := make([]string, len(articles))
	byID := make(map[string]*entity.Article, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		byID[a.ID] = a
		a.Tags = []*tagentity.Tag{}
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT at.article_id, t.* FROM article_tags at
		 JOIN tags t ON t.id = at.tag_id
		 WHERE at.article_id = ANY($1)
		 ORDER BY t.name`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var link struct {
			ArticleID string `db:"article_id"`
			tagentity.Tag
		}
		if err := rows.StructScan(&link); err != nil {
			return err
		}
		t := link.Tag
		byID[link.ArticleID].Tags = append(byID[link.ArticleID].Tags, &t)
	}
	return rows.Err()
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
