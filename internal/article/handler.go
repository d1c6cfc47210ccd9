package article

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/article/entity"
	artrepo "github.com/zhangyu-521/blog-system/internal/article/repo"
	"github.com/zhangyu-521/blog-system/internal/auth"
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
	a, err := h.svc.Create(r.Context(), in, claims.Subject)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromQuery(q, "createdAt", SortKeys()...)

	f := artrepo.ListFilter{
		Search:     q.Get("search"),
		Status:     entity.Status(q.Get("status")),
		CategoryID: q.Get("categoryId"),
		TagID:      q.Get("tagId"),
		AuthorID:   q.Get("authorId"),
	}
	if v := q.Get("pinned"); v == "true" || v == "false" {
		b := v == "true"
		f.Pinned = &b
	}
	if v := q.Get("featured"); v == "true" || v == "false" {
		b := v == "true"
		f.Featured = &b
	}

	page, err := h.svc.List(r.Context(), f, p)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, apperr.Unauthorized("missing bearer token"))
		return
	}
	var in UpdateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	a, err := h.svc.Update(r.Context(), r.PathValue("id"), in, claims.Subject, userentity.Role(claims.Role))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
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

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	likes, err := h.svc.Like(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"likeCount": likes})
}
