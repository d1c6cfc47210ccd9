// Package tag implements taxonomy management for article tags.
package tag

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/tag/entity"
	tagrepo "github.com/zhangyu-521/blog-system/internal/tag/repo"
	"github.com/zhangyu-521/blog-system/pkg/cache"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

const listCacheKey = "tags:list"

// Repository is the data-access surface the tag service depends on.
type Repository interface {
	Create(ctx context.Context, t *entity.Tag) error
	List(ctx context.Context) ([]*entity.Tag, error)
	FindByID(ctx context.Context, id string) (*entity.Tag, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Tag, error)
	Update(ctx context.Context, t *entity.Tag) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

type Input struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
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

func (s *Service) Create(ctx context.Context, in Input) (*entity.Tag, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	t := &entity.Tag{
		ID:          utilities.NewKSUID(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Color:       in.Color,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, tagrepo.ErrDuplicate) {
			return nil, apperr.Conflict("tag name or slug already exists")
		}
		return nil, err
	}
	s.invalidate()
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]*entity.Tag, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(listCacheKey); ok {
			return v.([]*entity.Tag), nil
		}
	}
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetWithTTL(listCacheKey, tags, 30*time.Second)
	}
	return tags, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Tag, error) {
	t, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("tag not found")
	}
	return t, err
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*entity.Tag, error) {
	t, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("tag not found")
	}
	return t, err
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Tag, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = in.Name
	t.Slug = in.Slug
	t.Description = in.Description
	t.Color = in.Color
	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, tagrepo.ErrDuplicate) {
			return nil, apperr.Conflict("tag name or slug already exists")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("tag not found")
		}
		return nil, err
	}
	s.invalidate()
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("tag not found")
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
