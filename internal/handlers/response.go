package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// envelope is the uniform response wrapper every endpoint returns.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondError is the single boundary translator: it maps the error taxonomy
// onto HTTP statuses and the error envelope. Nothing is retried here.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	var fields []string

	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		status = statusForKind(appErr.Kind)
		message = appErr.Message
		fields = appErr.Fields
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
		message = "resource not found"
	case errors.Is(err, repositories.ErrForbidden):
		status = http.StatusForbidden
		message = "resource belongs to another user"
	case errors.Is(err, repositories.ErrConflict):
		status = http.StatusConflict
		message = "resource already exists"
	case errors.Is(err, repositories.ErrInvalidCursor):
		status = http.StatusBadRequest
		message = "invalid pagination cursor"
	case errors.Is(err, auth.ErrNoToken):
		status = http.StatusUnauthorized
		message = "authentication required"
	case errors.Is(err, auth.ErrTokenReuse):
		status = http.StatusUnauthorized
		message = "refresh token is no longer valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserGone):
		status = http.StatusUnauthorized
		message = "invalid token"
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed", "error", err, "status", status)
	}

	if fields == nil {
		fields = []string{}
	}
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     fields,
	})
}

func statusForKind(kind error) int {
	switch kind {
	case apperror.ErrValidation:
		return http.StatusBadRequest
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperror.ErrForbidden:
		return http.StatusForbidden
	case apperror.ErrNotFound:
		return http.StatusNotFound
	case apperror.ErrConflict:
		return http.StatusConflict
	case apperror.ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", env.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case env.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", env.StatusCode, "message", env.Message)
	case env.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", env.StatusCode, "message", env.Message)
	}
}
