// Package auth implements credential validation, token issuance and refresh,
// the password-reset lifecycle, and the request authorization guard.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/config"
	"github.com/zhangyu-521/blog-system/internal/user/entity"
	userrepo "github.com/zhangyu-521/blog-system/internal/user/repo"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

const resetTokenLifetime = 15 * time.Minute

// UserStore is what the auth service needs from the credential store.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error)
}

// Mailer delivers account emails. Sends are fire-and-forget from this
// service's perspective; failures are logged, never surfaced.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, token string) error
	SendWelcomeEmail(ctx context.Context, to, username string) error
}

// Tokens is the ephemeral access/refresh pair handed to the client. It is
// never persisted.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Result bundles the sanitized user with a fresh token pair.
type Result struct {
	User   *entity.PublicUser `json:"user"`
	Tokens Tokens             `json:"tokens"`
}

type Service struct {
	store  UserStore
	hasher PasswordHasher
	mailer Mailer
	logger *zap.SugaredLogger

	accessSecret    []byte
	refreshSecret   []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
}

func NewService(store UserStore, hasher PasswordHasher, mailer Mailer, logger *zap.SugaredLogger, cfg config.JWT) (*Service, error) {
	accessLifetime, err := ParseLifetime(cfg.ExpiresIn)
	if err != nil {
		return nil, err
	}
	refreshLifetime, err := ParseLifetime(cfg.RefreshExpiresIn)
	if err != nil {
		return nil, err
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{
		store:           store,
		hasher:          hasher,
		mailer:          mailer,
		logger:          logger,
		accessSecret:    []byte(cfg.Secret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
	}, nil
}

type RegisterInput struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Bio       *string `json:"bio"`
}

func (in *RegisterInput) validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return apperr.BadRequest("a valid email is required")
	}
	if len(in.Username) < 3 {
		return apperr.BadRequest("username must be at least 3 characters")
	}
	if len(in.Password) < 6 {
		return apperr.BadRequest("password must be at least 6 characters")
	}
	return nil
}

// Register creates a new ACTIVE user and immediately issues tokens. Duplicate
// email or username maps to Conflict; the storage error never leaks.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
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
		Role:         entity.RoleUser,
		Status:       entity.StatusActive,
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, apperr.Conflict("email or username already in use")
		}
		return nil, err
	}

	if s.mailer != nil {
		go func(email, username string) {
			if err := s.mailer.SendWelcomeEmail(context.Background(), email, username); err != nil {
				s.logger.Warnw("welcome email failed", "error", err)
			}
		}(u.Email, u.Username)
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &Result{User: u.Public(), Tokens: tokens}, nil
}

// ValidateCredentials looks a user up by email and checks the password. It
// returns (nil, nil) both when the user is absent and when the password does
// not match, so the caller cannot tell the cases apart. A found user whose
// status is not ACTIVE is an Unauthorized error.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if u.Status != entity.StatusActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return nil, nil
	}
	return u, nil
}

// Login exchanges credentials for a token pair and the sanitized user.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &Result{User: u.Public(), Tokens: tokens}, nil
}

// Refresh verifies a refresh token and rotates the whole pair. Every
// verification failure collapses to the same Unauthorized error.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := Verify(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, apperr.Unauthorized("refresh token invalid or expired")
	}
	u, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Unauthorized("refresh token invalid or expired")
		}
		return nil, err
	}
	if u.Status != entity.StatusActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ForgotPassword stores a fresh reset token and mails it to the user. An
// unknown email is a silent no-op so the endpoint cannot be used to probe for
// accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	token := hex.EncodeToString(buf)

	if err := s.store.SetResetToken(ctx, u.ID, token, time.Now().Add(resetTokenLifetime)); err != nil {
		return err
	}

	if s.mailer != nil {
		go func(email, token string) {
			if err := s.mailer.SendPasswordResetEmail(context.Background(), email, token); err != nil {
				s.logger.Warnw("password reset email failed", "error", err)
			}
		}(u.Email, token)
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token match, expiry check, password update, and token clear happen in a
// single conditional UPDATE, so a token cannot be spent twice.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.BadRequest("password must be at least 6 characters")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.store.ConsumeResetToken(ctx, token, hash)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest("reset token invalid or expired")
	}
	return nil
}

// Logout is a stateless no-op: there is no server-side token store, so tokens
// remain valid until natural expiry.
func (s *Service) Logout(ctx context.Context, userID string) error {
	s.logger.Infow("user logged out", "userId", userID)
	return nil
}

// Profile returns the sanitized view of the authenticated user.
func (s *Service) Profile(ctx context.Context, userID string) (*entity.PublicUser, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u.Public(), nil
}

func (s *Service) issueTokens(u *entity.User) (Tokens, error) {
	access, err := Issue(u.ID, u.Email, string(u.Role), s.accessSecret, s.accessLifetime)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := Issue(u.ID, u.Email, string(u.Role), s.refreshSecret, s.refreshLifetime)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessLifetime.Seconds()),
	}, nil
}
