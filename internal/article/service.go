// Package article implements the article lifecycle: drafting, publishing,
// tagging, counters and removal.
package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/article/entity"
	artrepo "github.com/zhangyu-521/blog-system/internal/article/repo"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

// maxSlugAttempts bounds the uniquifying suffix search before falling back
// to a KSUID suffix.
const maxSlugAttempts = 20

// Repository is the data-access surface the article service depends on.
type Repository interface {
	Create(ctx context.Context, a *entity.Article) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f artrepo.ListFilter, sortBy, sortOrder string, limit, offset int) ([]*entity.Article, int64, error)
	FindByID(ctx context.Context, id string) (*entity.Article, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Article, error)
	Update(ctx context.Context, a *entity.Article) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (int64, error)
	ReplaceTags(ctx context.Context, articleID string, tagIDs []string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"publishedAt": "published_at",
	"viewCount":   "view_count",
	"likeCount":   "like_count",
	"title":       "title",
}

// SortKeys lists the sortBy values accepted by List.
func SortKeys() []string {
	keys := make([]string, 0, len(sortColumns))
	for k := range sortColumns {
		keys = append(keys, k)
	}
	return keys
}

type CreateInput struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	CoverImage      string   `json:"coverImage"`
	Status          string   `json:"status"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	MetaKeywords    string   `json:"metaKeywords"`
	AllowComments   *bool    `json:"allowComments"`
	IsPinned        bool     `json:"isPinned"`
	IsFeatured      bool     `json:"isFeatured"`
	CategoryID      *string  `json:"categoryId"`
	TagIDs          []string `json:"tagIds"`
}

// Create stores a new article for authorID. The slug is derived from the
// title (or the explicit slug) and uniquified with a numeric suffix.
func (s *Service) Create(ctx context.Context, in CreateInput, authorID string) (*entity.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.BadRequest("title is required")
	}
	if in.Content == "" {
		return nil, apperr.BadRequest("content is required")
	}
	status := entity.StatusDraft
	if in.Status != "" {
		status = entity.Status(in.Status)
		if !status.Valid() {
			return nil, apperr.BadRequest("invalid article status")
		}
	}

	base := in.Slug
	if base == "" {
		base = in.Title
	}
	slug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	a := &entity.Article{
		ID:              utilities.NewKSUID(),
		Title:           in.Title,
		Slug:            slug,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		CoverImage:      in.CoverImage,
		Status:          status,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		MetaKeywords:    in.MetaKeywords,
		AllowComments:   true,
		IsPinned:        in.IsPinned,
		IsFeatured:      in.IsFeatured,
		AuthorID:        authorID,
		CategoryID:      in.CategoryID,
	}
	if in.AllowComments != nil {
		a.AllowComments = *in.AllowComments
	}
	if status == entity.StatusPublished {
		now := time.Now()
		a.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, artrepo.ErrDuplicate) {
			return nil, apperr.Conflict("article slug already exists")
		}
		return nil, err
	}
	if len(in.TagIDs) > 0 {
		if err := s.repo.ReplaceTags(ctx, a.ID, in.TagIDs); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, a.ID)
}

func (s *Service) List(ctx context.Context, f artrepo.ListFilter, p pagination.Params) (*pagination.Page[*entity.Article], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.BadRequest("invalid article status")
	}
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	articles, total, err := s.repo.List(ctx, f, col, p.SortOrder, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	return &pagination.Page[*entity.Article]{Data: articles, Meta: pagination.NewMeta(total, p)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Article, error) {
	a, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("article not found")
	}
	return a, err
}

// GetBySlug is the public read path; every hit bumps the view counter.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*entity.Article, error) {
	a, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("article not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, a.ID); err != nil {
		return nil, err
	}
	a.ViewCount++
	return a, nil
}

type UpdateInput struct {
	Title           *string  `json:"title"`
	Slug            *string  `json:"slug"`
	Content         *string  `json:"content"`
	Excerpt         *string  `json:"excerpt"`
	CoverImage      *string  `json:"coverImage"`
	Status          *string  `json:"status"`
	MetaTitle       *string  `json:"metaTitle"`
	MetaDescription *string  `json:"metaDescription"`
	MetaKeywords    *string  `json:"metaKeywords"`
	AllowComments   *bool    `json:"allowComments"`
	IsPinned        *bool    `json:"isPinned"`
	IsFeatured      *bool    `json:"isFeatured"`
	CategoryID      *string  `json:"categoryId"`
	TagIDs          []string `json:"tagIds"`
}

// Update applies the changed fields. Only the author or a moderator/admin may
// edit; publishing for the first time stamps published_at, and the stamp is
// never reset afterwards.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, callerID string, callerRole userentity.Role) (*entity.Article, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != callerID && !callerRole.IsModeratorOrAdmin() {
		return nil, apperr.Forbidden("not the article author")
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.BadRequest("title is required")
		}
		a.Title = t
	}
	if in.Slug != nil {
		slug, err := s.uniqueSlugExcept(ctx, *in.Slug, a.Slug)
		if err != nil {
			return nil, err
		}
		a.Slug = slug
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Excerpt != nil {
		a.Excerpt = *in.Excerpt
	}
	if in.CoverImage != nil {
		a.CoverImage = *in.CoverImage
	}
	if in.Status != nil {
		status := entity.Status(*in.Status)
		if !status.Valid() {
			return nil, apperr.BadRequest("invalid article status")
		}
		if status == entity.StatusPublished && a.PublishedAt == nil {
			now := time.Now()
			a.PublishedAt = &now
		}
		a.Status = status
	}
	if in.MetaTitle != nil {
		a.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		a.MetaDescription = *in.MetaDescription
	}
	if in.MetaKeywords != nil {
		a.MetaKeywords = *in.MetaKeywords
	}
	if in.AllowComments != nil {
		a.AllowComments = *in.AllowComments
	}
	if in.IsPinned != nil {
		a.IsPinned = *in.IsPinned
	}
	if in.IsFeatured != nil {
		a.IsFeatured = *in.IsFeatured
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			a.CategoryID = nil
		} else {
			a.CategoryID = in.CategoryID
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, artrepo.ErrDuplicate) {
			return nil, apperr.Conflict("article slug already exists")
		}
		return nil, err
	}
	if in.TagIDs != nil {
		if err := s.repo.ReplaceTags(ctx, a.ID, in.TagIDs); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, a.ID)
}

// Delete removes an article. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, id, callerID string, callerRole userentity.Role) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.AuthorID != callerID && callerRole != userentity.RoleAdmin {
		return apperr.Forbidden("not the article author")
	}
	return s.repo.Delete(ctx, id)
}

// Like increments the like counter and returns the new value.
func (s *Service) Like(ctx context.Context, id string) (int64, error) {
	likes, err := s.repo.IncrementLikes(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("article not found")
	}
	return likes, err
}

func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	return s.uniqueSlugExcept(ctx, base, "")
}

// uniqueSlugExcept slugifies base and appends -2, -3, ... until the slug is
// free. keep is the caller's current slug and always counts as free.
func (s *Service) uniqueSlugExcept(ctx context.Context, base, keep string) (string, error) {
	slug := utilities.Slugify(base)
	if slug == "" {
		return "", apperr.BadRequest("title does not produce a usable slug")
	}
	candidate := slug
	for i := 2; i <= maxSlugAttempts; i++ {
		if candidate == keep {
			return candidate, nil
		}
		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
	return fmt.Sprintf("%s-%s", slug, strings.ToLower(utilities.NewKSUID())), nil
}
