package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/user/entity"
	"github.com/zhangyu-521/blog-system/pkg/httpx"
)

type ctxKey struct{}

// UserFromContext returns the claims the guard attached for the current
// request, if any.
func UserFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// Guard makes the per-request authentication and authorization decision.
// Routes declare their requirements at registration time by choosing which
// wrapper to mount; public routes are simply not wrapped.
type Guard struct {
	accessSecret []byte
	logger       *zap.SugaredLogger
}

func NewGuard(accessSecret []byte, logger *zap.SugaredLogger) *Guard {
	return &Guard{accessSecret: accessSecret, logger: logger}
}

// Require returns middleware that rejects requests without a valid bearer
// access token (401) and, when roles is non-empty, requests whose caller's
// role is outside the set (403). The resolved claims are placed in the
// request context for downstream ownership checks.
func (g *Guard) Require(roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, g.logger, apperr.Unauthorized("missing bearer token"))
				return
			}
			claims, err := Verify(token, g.accessSecret)
			if err != nil {
				httpx.WriteError(w, g.logger, apperr.Unauthorized("invalid or expired token"))
				return
			}
			if len(roles) > 0 && !roleAllowed(entity.Role(claims.Role), roles) {
				httpx.WriteError(w, g.logger, apperr.Forbidden("insufficient role"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role entity.Role, allowed []entity.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
