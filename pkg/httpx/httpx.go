// Package httpx holds the small request/response helpers shared by all HTTP
// handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/apperr"
)

const maxBodyBytes = 1 << 20 // 1 MiB request body cap

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.BadRequest("invalid request body").WithCause(err)
	}
	return nil
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and writes the error
// body. Internal errors are logged with their cause; the client only ever
// sees the generic message.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	ae := apperr.From(err)
	if ae.Status >= 500 && logger != nil {
		logger.Errorw("request failed", "error", errorCause(ae))
	}
	WriteJSON(w, ae.Status, ae)
}

func errorCause(err error) string {
	if u := errors.Unwrap(err); u != nil {
		return u.Error()
	}
	return err.Error()
}
