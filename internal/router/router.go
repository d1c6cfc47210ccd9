// Package router wires every HTTP handler into one mux and applies the
// shared middleware chain.
package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/article"
	"github.com/zhangyu-521/blog-system/internal/auth"
	"github.com/zhangyu-521/blog-system/internal/category"
	"github.com/zhangyu-521/blog-system/internal/comment"
	"github.com/zhangyu-521/blog-system/internal/tag"
	"github.com/zhangyu-521/blog-system/internal/upload"
	"github.com/zhangyu-521/blog-system/internal/user"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth     *auth.Handler
	Guard    *auth.Guard
	User     *user.Handler
	Article  *article.Handler
	Category *category.Handler
	Tag      *tag.Handler
	Comment  *comment.Handler
	Upload   *upload.Handler

	// UploadDir is served read-only under /uploads/.
	UploadDir string
}

// RegisterRoutes mounts all handlers on a ServeMux and wraps it with the
// request-id, security-header and logging middleware.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	authed := h.Guard.Require()
	mods := h.Guard.Require(userentity.RoleModerator, userentity.RoleAdmin)
	admin := h.Guard.Require(userentity.RoleAdmin)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)
	mux.Handle("POST /api/auth/logout", authed(http.HandlerFunc(h.Auth.Logout)))
	mux.Handle("GET /api/auth/profile", authed(http.HandlerFunc(h.Auth.Profile)))

	// users
	mux.Handle("POST /api/users", admin(http.HandlerFunc(h.User.Create)))
	mux.Handle("GET /api/users", admin(http.HandlerFunc(h.User.List)))
	mux.Handle("GET /api/users/{id}", authed(http.HandlerFunc(h.User.Get)))
	mux.Handle("PATCH /api/users/{id}", authed(http.HandlerFunc(h.User.Update)))
	mux.Handle("POST /api/users/change-password", authed(http.HandlerFunc(h.User.ChangePassword)))
	mux.Handle("PATCH /api/users/{id}/status", admin(http.HandlerFunc(h.User.UpdateStatus)))
	mux.Handle("DELETE /api/users/{id}", admin(http.HandlerFunc(h.User.Delete)))
	mux.Handle("GET /api/users/{id}/stats", authed(http.HandlerFunc(h.User.Stats)))

	// articles
	mux.Handle("POST /api/articles", authed(http.HandlerFunc(h.Article.Create)))
	mux.HandleFunc("GET /api/articles", h.Article.List)
	mux.HandleFunc("GET /api/articles/{id}", h.Article.Get)
	mux.HandleFunc("GET /api/articles/slug/{slug}", h.Article.GetBySlug)
	mux.Handle("PATCH /api/articles/{id}", authed(http.HandlerFunc(h.Article.Update)))
	mux.Handle("DELETE /api/articles/{id}", authed(http.HandlerFunc(h.Article.Delete)))
	mux.HandleFunc("POST /api/articles/{id}/like", h.Article.Like)

	// categories
	mux.HandleFunc("GET /api/categories", h.Category.List)
	mux.HandleFunc("GET /api/categories/{id}", h.Category.Get)
	mux.HandleFunc("GET /api/categories/slug/{slug}", h.Category.GetBySlug)
	mux.Handle("POST /api/categories", admin(http.HandlerFunc(h.Category.Create)))
	mux.Handle("PUT /api/categories/{id}", admin(http.HandlerFunc(h.Category.Update)))
	mux.Handle("DELETE /api/categories/{id}", admin(http.HandlerFunc(h.Category.Delete)))

	// tags
	mux.HandleFunc("GET /api/tags", h.Tag.List)
	mux.HandleFunc("GET /api/tags/{id}", h.Tag.Get)
	mux.HandleFunc("GET /api/tags/slug/{slug}", h.Tag.GetBySlug)
	mux.Handle("POST /api/tags", admin(http.HandlerFunc(h.Tag.Create)))
	mux.Handle("PUT /api/tags/{id}", admin(http.HandlerFunc(h.Tag.Update)))
	mux.Handle("DELETE /api/tags/{id}", admin(http.HandlerFunc(h.Tag.Delete)))

	// comments
	mux.Handle("POST /api/comments", authed(http.HandlerFunc(h.Comment.Create)))
	mux.HandleFunc("GET /api/comments/article/{articleId}", h.Comment.ListByArticle)
	mux.Handle("GET /api/comments/moderation", mods(http.HandlerFunc(h.Comment.ListForModeration)))
	mux.Handle("PATCH /api/comments/{id}/status", mods(http.HandlerFunc(h.Comment.Moderate)))
	mux.Handle("DELETE /api/comments/{id}", authed(http.HandlerFunc(h.Comment.Delete)))

	// uploads
	mux.Handle("POST /api/upload/image", authed(http.HandlerFunc(h.Upload.Image)))
	if h.UploadDir != "" {
		mux.Handle("GET /uploads/",
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.UploadDir))))
	}

	return RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}
