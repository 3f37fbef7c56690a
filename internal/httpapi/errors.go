package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	mylog "github.com/mohammed-shakir/mapnotes/internal/logger"
	"github.com/mohammed-shakir/mapnotes/internal/workspace"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	// Existing is set on duplicate rejections.
	Existing *model.Marker `json:"existing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, APIError{
		Status:    status,
		Code:      code,
		Message:   msg,
		RequestID: mylog.RequestID(r.Context()),
	})
}

// statusFor maps domain errors to HTTP status and code.
func statusFor(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig), errors.Is(err, workspace.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, model.ErrInvalidCoordinate),
		errors.Is(err, model.ErrInvalidField),
		errors.Is(err, model.ErrInvalidGeometry),
		errors.Is(err, model.ErrEmptyName),
		errors.Is(err, model.ErrMissingRequiredColumns):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrProjectNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrProtectedProject):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrDuplicateRejected):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrExternalOperation):
		return http.StatusBadGateway, "external_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "err", err, "path", r.URL.Path)
	}
	body := APIError{
		Status:    status,
		Code:      code,
		Message:   err.Error(),
		RequestID: mylog.RequestID(r.Context()),
	}
	var dup *model.DuplicateError
	if errors.As(err, &dup) {
		body.Existing = &dup.Existing
	}
	writeJSON(w, status, body)
}
