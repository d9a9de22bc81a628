package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/collection-scheduler/internal/application"
	"github.com/example/collection-scheduler/internal/logging"
	"github.com/example/collection-scheduler/internal/scheduler"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errInvalidEntryID = errors.New("invalid schedule entry id")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := err.Error(); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps the engine's error taxonomy onto HTTP statuses:
// validation 422, not found 404, conflicts and lifecycle violations 409,
// storage failures 500.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "service call failed",
		"error", err, "error_kind", application.ErrorKind(err))

	var notFound *application.NotFoundError
	if errors.As(err, &notFound) {
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   notFound.Error(),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "input validation failed",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:          "SLOT_CONFLICT",
			Message:            conflict.Error(),
			ConflictingEntryID: conflict.ConflictingEntryID,
		})
		return
	}

	var transition *scheduler.IllegalTransitionError
	if errors.As(err, &transition) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ILLEGAL_TRANSITION",
			Message:   transition.Error(),
		})
		return
	}

	var state *application.IllegalStateError
	if errors.As(err, &state) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ILLEGAL_STATE",
			Message:   state.Error(),
		})
		return
	}

	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
		ErrorCode: "INTERNAL",
		Message:   "internal server error",
	})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode          string            `json:"error_code,omitempty"`
	Message            string            `json:"message"`
	Errors             map[string]string `json:"errors,omitempty"`
	ConflictingEntryID string            `json:"conflicting_entry_id,omitempty"`
}
