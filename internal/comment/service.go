// Package comment implements article comments with pre-publication
// moderation.
package comment

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	articleentity "github.com/zhangyu-521/blog-system/internal/article/entity"
	"github.com/zhangyu-521/blog-system/internal/comment/entity"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

// Repository is the data-access surface the comment service depends on.
type Repository interface {
	Create(ctx context.Context, c *entity.Comment) error
	FindByID(ctx context.Context, id string) (*entity.Comment, error)
	ListApprovedByArticle(ctx context.Context, articleID string) ([]*entity.Comment, error)
	ListByStatus(ctx context.Context, status entity.Status, limit, offset int) ([]*entity.Comment, int64, error)
	UpdateStatus(ctx context.Context, id string, status entity.Status) error
	Delete(ctx context.Context, id string) error
}

// ArticleReader is the slice of the article service comments depend on.
type ArticleReader interface {
	Get(ctx context.Context, id string) (*articleentity.Article, error)
}

type Service struct {
	repo     Repository
	articles ArticleReader
}

func NewService(repo Repository, articles ArticleReader) *Service {
	return &Service{repo: repo, articles: articles}
}

type CreateInput struct {
	Content   string  `json:"content"`
	ArticleID string  `json:"articleId"`
	ParentID  *string `json:"parentId"`
}

// RequestMeta carries the client fingerprint recorded with each comment.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Create stores a new PENDING comment. The article must exist and allow
// comments; a reply's parent must belong to the same article.
func (s *Service) Create(ctx context.Context, in CreateInput, authorID string, meta RequestMeta) (*entity.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, apperr.BadRequest("content is required")
	}
	a, err := s.articles.Get(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if !a.AllowComments {
		return nil, apperr.BadRequest("comments are disabled for this article")
	}
	if in.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *in.ParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("parent comment not found")
		}
		if err != nil {
			return nil, err
		}
		if parent.ArticleID != in.ArticleID {
			return nil, apperr.BadRequest("parent comment belongs to another article")
		}
	}

	c := &entity.Comment{
		ID:        utilities.NewKSUID(),
		Content:   in.Content,
		Status:    entity.StatusPending,
		ArticleID: in.ArticleID,
		AuthorID:  authorID,
		ParentID:  in.ParentID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByArticle returns the approved comment tree for an article.
func (s *Service) ListByArticle(ctx context.Context, articleID string) ([]*entity.Comment, error) {
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repo.ListApprovedByArticle(ctx, articleID)
}

// ListForModeration pages through comments in the given status, PENDING by
// default.
func (s *Service) ListForModeration(ctx context.Context, status entity.Status, p pagination.Params) (*pagination.Page[*entity.Comment], error) {
	if status == "" {
		status = entity.StatusPending
	}
	if !status.Valid() {
		return nil, apperr.BadRequest("invalid comment status")
	}
	comments, total, err := s.repo.ListByStatus(ctx, status, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	return &pagination.Page[*entity.Comment]{Data: comments, Meta: pagination.NewMeta(total, p)}, nil
}

// Moderate sets a comment's status. The guard restricts the route to
// moderators and admins.
func (s *Service) Moderate(ctx context.Context, id string, status entity.Status) (*entity.Comment, error) {
	if !status.Valid() {
		return nil, apperr.BadRequest("invalid comment status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a comment. Allowed for the author and for moderators/admins.
func (s *Service) Delete(ctx context.Context, id, callerID string, callerRole userentity.Role) error {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("comment not found")
	}
	if err != nil {
		return err
	}
	if c.AuthorID != callerID && !callerRole.IsModeratorOrAdmin() {
		return apperr.Forbidden("not the comment author")
	}
	return s.repo.Delete(ctx, id)
}
