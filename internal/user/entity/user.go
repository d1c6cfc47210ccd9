package entity

import "time"

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// IsModeratorOrAdmin reports whether the role carries moderation rights.
func (r Role) IsModeratorOrAdmin() bool {
	return r == RoleModerator || r == RoleAdmin
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBanned   Status = "BANNED"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusBanned
}

// User is an account row in the users table. PasswordHash and the reset token
// pair are never serialized; responses go through Public().
type User struct {
	ID                   string     `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	Username             string     `db:"username" json:"username"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	FirstName            *string    `db:"first_name" json:"firstName"`
	LastName             *string    `db:"last_name" json:"lastName"`
	Avatar               *string    `db:"avatar" json:"avatar"`
	Bio                  *string    `db:"bio" json:"bio"`
	Role                 Role       `db:"role" json:"role"`
	Status               Status     `db:"status" json:"status"`
	EmailVerified        bool       `db:"email_verified" json:"emailVerified"`
	PasswordResetToken   *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires *time.Time `db:"password_reset_expires" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// PublicUser is the allow-listed view returned by the API. Fields are copied
// explicitly rather than relying on struct-tag exclusion.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     *string   `json:"firstName"`
	LastName      *string   `json:"lastName"`
	Avatar        *string   `json:"avatar"`
	Bio           *string   `json:"bio"`
	Role          Role      `json:"role"`
	Status        Status    `json:"status"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Avatar:        u.Avatar,
		Bio:           u.Bio,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
