package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/identity"
	"github.com/Mikkung/MeetingRoom-Proj/internal/logging"
)

// IdentityVerifier turns the credentials on a request into a verified
// identity. The only implementation outside tests is identity.Verifier.
type IdentityVerifier interface {
	FromRequest(r *http.Request) (booking.Identity, error)
}

// RequireIdentity verifies the bearer token and attaches the caller's
// identity to the request context. Requests without a valid token are
// rejected with 401 before reaching the handler.
func RequireIdentity(verifier IdentityVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				responder.writeError(r.Context(), w, http.StatusInternalServerError, errors.New("identity verifier not configured"))
				return
			}

			ident, err := verifier.FromRequest(r)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) {
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "unauthenticated",
						Message:   errMissingBearer.Error(),
					})
					return
				}
				responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
				return
			}

			ctx := ContextWithIdentity(r.Context(), ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose verified identity does not carry the
// admin role. It must run after RequireIdentity.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok || ident.IsZero() {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "unauthenticated",
					Message:   errMissingBearer.Error(),
				})
				return
			}
			if ident.Role != booking.RoleAdmin {
				responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
					ErrorCode: "forbidden",
					Message:   "administrator privileges are required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request-scoped logger to the context and logs the
// start and completion of every request. The chi request id is folded into
// the logger when the RequestID middleware runs earlier in the chain.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"method", r.Method,
				"path", r.URL.Path,
			)
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				logger = logger.With("request_id", reqID)
			}

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
