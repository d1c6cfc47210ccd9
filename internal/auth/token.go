package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

// ErrInvalidToken is returned by Verify for any signature, expiry, or shape
// failure. Callers must not distinguish the cases.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload embedded in both access and refresh tokens. The token
// kind is enforced by the signing secret, not by the claim shape.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Issue signs a token for the given subject with the provided secret and
// lifetime. The caller chooses the secret, which is what separates access
// tokens from refresh tokens.
func Issue(userID, email, role string, secret []byte, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every issued token distinct, even within one second
			ID:        utilities.NewKSUID(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Email: email,
		Role:  role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses and validates a token against the secret. Any failure
// collapses to ErrInvalidToken.
func Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseLifetime converts a lifetime string such as "15m", "12h" or "7d" to a
// duration. A bare integer is taken as seconds. Mixed-unit strings are not
// supported.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty lifetime")
	}
	unit := time.Second
	switch s[len(s)-1] {
	case 'd':
		unit, s = 24*time.Hour, s[:len(s)-1]
	case 'h':
		unit, s = time.Hour, s[:len(s)-1]
	case 'm':
		unit, s = time.Minute, s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid lifetime %q", s)
	}
	return time.Duration(n) * unit, nil
}
