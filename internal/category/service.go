// Package category implements taxonomy management for article categories.
package category

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/category/entity"
	catrepo "github.com/zhangyu-521/blog-system/internal/category/repo"
	"github.com/zhangyu-521/blog-system/pkg/cache"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

const listCacheKey = "categories:list"

// Repository is the data-access surface the category service depends on.
type Repository interface {
	Create(ctx context.Context, c *entity.Category) error
	List(ctx context.Context) ([]*entity.Category, error)
	FindByID(ctx context.Context, id string) (*entity.Category, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	Update(ctx context.Context, c *entity.Category) error
	ArticleCount(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService wires the repository and an optional list cache. A nil cache
// disables caching.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

type Input struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sortOrder"`
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.BadRequest("name is required")
	}
	if in.Slug == "" {
		in.Slug = utilities.Slugify(in.Name)
	} else {
		in.Slug = utilities.Slugify(in.Slug)
	}
	if in.Slug == "" {
		return apperr.BadRequest("name does not produce a usable slug")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := &entity.Category{
		ID:          utilities.NewKSUID(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		SortOrder:   in.SortOrder,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, catrepo.ErrDuplicate) {
			return nil, apperr.Conflict("category name or slug already exists")
		}
		return nil, err
	}
	s.invalidate()
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*entity.Category, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(listCacheKey); ok {
			return v.([]*entity.Category), nil
		}
	}
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetWithTTL(listCacheKey, cats, 30*time.Second)
	}
	return cats, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("category not found")
	}
	return c, err
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	c, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("category not found")
	}
	return c, err
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Slug = in.Slug
	c.Description = in.Description
	c.Color = in.Color
	c.Icon = in.Icon
	c.SortOrder = in.SortOrder
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, catrepo.ErrDuplicate) {
			return nil, apperr.Conflict("category name or slug already exists")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, err
	}
	s.invalidate()
	return c, nil
}

// Delete refuses to remove a category that still has articles filed under it.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.ArticleCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("category still has articles")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("category not found")
		}
		return err
	}
	s.invalidate()
	return nil
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Delete(listCacheKey)
	}
}
