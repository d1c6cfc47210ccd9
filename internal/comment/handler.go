package comment

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/auth"
	"github.com/zhangyu-521/blog-system/internal/comment/entity"
	userentity "github.com/zhangyu-521/blog-system/internal/user/entity"
	"github.com/zhangyu-521/blog-system/pkg/httpx"
	"github.com/zhangyu-521/blog-system/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, apperr.Unauthorized("missing bearer token"))
		return
	}
	var in CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	meta := RequestMeta{IPAddress: clientIP(r), UserAgent: r.UserAgent()}
	c, err := h.svc.Create(r.Context(), in, claims.Subject, meta)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListByArticle(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListByArticle(r.Context(), r.PathValue("articleId"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) ListForModeration(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromQuery(q, "createdAt", "createdAt")
	page, err := h.svc.ListForModeration(r.Context(), entity.Status(q.Get("status")), p)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status entity.Status `json:"status"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	c, err := h.svc.Moderate(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, apperr.Unauthorized("missing bearer token"))
		return
	}
	if err := h.svc.Delete(r.Context(), r.PathValue("id"), claims.Subject, userentity.Role(claims.Role)); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
