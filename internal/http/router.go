package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig wires handlers and cross-cutting middleware into one
// http.Handler. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Rooms        *RoomHandler
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Export       *ExportHandler

	Verifier       IdentityVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the API router. Catalog and availability reads are
// public; every booking route runs behind bearer authentication, and the
// export additionally requires the admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Heartbeat("/healthz"))

	r.Route("/api", func(r chi.Router) {
		if cfg.Rooms != nil {
			r.Get("/rooms", cfg.Rooms.List)
		}
		if cfg.Availability != nil {
			r.Get("/availability", cfg.Availability.Grid)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity(cfg.Verifier, logger))

			if cfg.Bookings != nil {
				r.Get("/bookings", cfg.Bookings.List)
				r.Post("/bookings", cfg.Bookings.Create)
				r.Delete("/bookings/{bookingID}", cfg.Bookings.Delete)
			}
			if cfg.Export != nil {
				r.With(RequireAdmin(logger)).Get("/bookings/export", cfg.Export.CSV)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.writeError(r.Context(), w, http.StatusNotFound, errors.New("no route matches the requested path"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responder.writeError(r.Context(), w, http.StatusMethodNotAllowed, errors.New("the method is not allowed for this path"))
	})

	return r
}
