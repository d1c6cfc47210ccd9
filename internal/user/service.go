// Package user implements account management on top of the credential store.
package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/auth"
	"github.com/zhangyu-521/blog-system/internal/user/entity"
	userrepo "github.com/zhangyu-521/blog-system/internal/user/repo"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

// Repository is the data-access surface the user service depends on.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, f userrepo.ListFilter, sortBy, sortOrder string, limit, offset int) ([]*entity.User, int64, error)
	UpdateProfile(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateStatus(ctx context.Context, id string, status entity.Status) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, id string) (articles, comments int64, err error)
}

type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
}

func NewService(repo Repository, hasher auth.PasswordHasher) *Service {
	if hasher == nil {
		hasher = auth.BcryptHasher{Cost: 12}
	}
	return &Service{repo: repo, hasher: hasher}
}

// CreateInput is the admin-create payload; unlike registration it may set the
// role directly.
type CreateInput struct {
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	FirstName *string     `json:"firstName"`
	LastName  *string     `json:"lastName"`
	Bio       *string     `json:"bio"`
	Role      entity.Role `json:"role"`
}

// Create inserts a user on behalf of an administrator.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.PublicUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.BadRequest("a valid email is required")
	}
	if len(in.Username) < 3 {
		return nil, apperr.BadRequest("username must be at least 3 characters")
	}
	if len(in.Password) < 6 {
		return nil, apperr.BadRequest("password must be at least 6 characters")
	}
	if in.Role == "" {
		in.Role = entity.RoleUser
	}
	if !in.Role.Valid() {
		return nil, apperr.BadRequest("unknown role")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		ID:           utilities.NewKSUID(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Bio:          in.Bio,
		Role:         in.Role,
		Status:       entity.StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, apperr.Conflict("email or username already in use")
		}
		return nil, err
	}
	return u.Public(), nil
}

// List returns a page of sanitized users.
func (s *Service) List(ctx context.Context, f userrepo.ListFilter, p pagination.Params) (*pagination.Page[*entity.PublicUser], error) {
	users, total, err := s.repo.List(ctx, f, sortColumn(p.SortBy), p.SortOrder, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]*entity.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return &pagination.Page[*entity.PublicUser]{Data: out, Meta: pagination.NewMeta(total, p)}, nil
}

// sortColumn maps API sort keys to column names.
func sortColumn(key string) string {
	switch key {
	case "username":
		return "username"
	case "email":
		return "email"
	default:
		return "created_at"
	}
}

func (s *Service) Get(ctx context.Context, id string) (*entity.PublicUser, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// UpdateInput carries optional profile fields; nil means "leave unchanged".
type UpdateInput struct {
	Username  *string `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Avatar    *string `json:"avatar"`
	Bio       *string `json:"bio"`
}

// Update applies profile changes. Only the user themselves or an admin may
// update a profile.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actorID string, actorRole entity.Role) (*entity.PublicUser, error) {
	if actorID != id && actorRole != entity.RoleAdmin {
		return nil, apperr.Forbidden("cannot update another user's profile")
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if len(name) < 3 {
			return nil, apperr.BadRequest("username must be at least 3 characters")
		}
		u.Username = name
	}
	if in.FirstName != nil {
		u.FirstName = in.FirstName
	}
	if in.LastName != nil {
		u.LastName = in.LastName
	}
	if in.Avatar != nil {
		u.Avatar = in.Avatar
	}
	if in.Bio != nil {
		u.Bio = in.Bio
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, apperr.Conflict("username already in use")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u.Public(), nil
}

// ChangePassword verifies the current password before installing a new one.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.BadRequest("password must be at least 6 characters")
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(u.PasswordHash, currentPassword) {
		return apperr.BadRequest("current password is incorrect")
	}
	if s.hasher.Compare(u.PasswordHash, newPassword) {
		return apperr.BadRequest("new password must differ from the current password")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// UpdateStatus switches a user between ACTIVE, INACTIVE and BANNED.
func (s *Service) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.PublicUser, error) {
	if !status.Valid() {
		return nil, apperr.BadRequest("unknown status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	return nil
}

// Stats combines the profile with activity counters.
type Stats struct {
	User         *entity.PublicUser `json:"user"`
	ArticleCount int64              `json:"articleCount"`
	CommentCount int64              `json:"commentCount"`
	JoinedDays   int64              `json:"joinedDays"`
}

func (s *Service) GetStats(ctx context.Context, id string) (*Stats, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	articles, comments, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Stats{
		User:         u.Public(),
		ArticleCount: articles,
		CommentCount: comments,
		JoinedDays:   int64(time.Since(u.CreatedAt).Hours() / 24),
	}, nil
}

func (s *Service) find(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}
