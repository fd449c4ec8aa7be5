package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
	"github.com/Mikkung/MeetingRoom-Proj/internal/logging"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

var (
	errBadRequestBody   = errors.New("request body is not valid JSON")
	errInvalidBookingID = errors.New("a booking id is required")
	errMissingRoomID    = errors.New("the room_id query parameter is required")
	errMissingBearer    = errors.New("a valid bearer token is required")
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
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: codeForStatus(status), Message: message})
}

// writeFieldErrors rejects a request whose parameters could not even be
// parsed into domain types. The shape matches engine validation failures so
// clients handle both identically.
func (r responder) writeFieldErrors(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		ErrorCode: "invalid_interval",
		Message:   "the request failed validation",
		Errors:    fields,
	})
}

// handleServiceError translates the engine taxonomy, and the store sentinels
// that reach the read path unmapped, into HTTP responses. StoreUnavailable is
// always surfaced as 503, never downgraded to an empty success.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	if conflict, ok := engine.AsSlotConflict(err); ok {
		r.writeConflict(ctx, w, conflict.OwnerID, conflict.Interval)
		return
	}
	if conflict, ok := store.AsConflict(err); ok {
		r.writeConflict(ctx, w, conflict.OwnerID, conflict.Interval)
		return
	}

	var vErr *engine.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "invalid_interval",
			Message:   "the request failed validation",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	switch {
	case errors.Is(err, engine.ErrUnknownRoom):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "unknown_room",
			Message:   "the requested room is not part of the catalog",
		})
	case errors.Is(err, engine.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "unauthenticated",
			Message:   "authentication is required",
		})
	case errors.Is(err, engine.ErrForbidden), errors.Is(err, store.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "forbidden",
			Message:   "you may not act on this booking",
		})
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, store.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "not_found",
			Message:   "the requested booking does not exist",
		})
	case errors.Is(err, engine.ErrBusy), errors.Is(err, store.ErrBusy):
		w.Header().Set("Retry-After", "1")
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "busy",
			Message:   "the booking store could not serialize the request in time, retry shortly",
		})
	case errors.Is(err, engine.ErrStoreUnavailable), errors.Is(err, store.ErrUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "store_unavailable",
			Message:   "the booking store is unavailable",
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "internal",
			Message:   "an internal error occurred",
		})
	}
}

func (r responder) writeConflict(ctx context.Context, w http.ResponseWriter, ownerID string, interval booking.Interval) {
	r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
		ErrorCode: "slot_conflict",
		Message:   fmt.Sprintf("the requested slot is already booked by %s", ownerID),
		Conflict: &conflictDTO{
			OwnerID: ownerID,
			Start:   interval.Start.String(),
			End:     interval.End.String(),
		},
	})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is not valid"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "you are not allowed to perform this operation"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusMethodNotAllowed:
		return "the method is not allowed for this path"
	case http.StatusConflict:
		return "the request conflicts with the current state"
	default:
		return "an internal error occurred"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}

type conflictDTO struct {
	OwnerID string `json:"owner_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}
