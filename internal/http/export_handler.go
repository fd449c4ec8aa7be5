package http

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
)

type bookingExporter interface {
	AllBookings(ctx context.Context) ([]booking.Booking, error)
}

// ExportHandler streams the full booking ledger as CSV. The route sits
// behind RequireAdmin; the handler itself only shapes the download.
type ExportHandler struct {
	service   bookingExporter
	responder responder
	logger    *slog.Logger
}

func NewExportHandler(service bookingExporter, logger *slog.Logger) *ExportHandler {
	base := defaultLogger(logger)
	return &ExportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ExportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ExportHandler", operation, attrs...)
}

func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requester, _ := IdentityFromContext(r.Context())
	logger := h.log(r.Context(), "CSV", "user_id", requester.UserID)

	all, err := h.service.AllBookings(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "export failed", "error", err, "error_kind", engine.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	// The header row mirrors the booking columns of the durable drivers.
	records := [][]string{{"id", "room_id", "date", "start", "end", "owner_id", "owner_email", "created_at"}}
	for _, b := range all {
		records = append(records, []string{
			b.ID,
			b.RoomID,
			b.Date.String(),
			b.Interval.Start.String(),
			b.Interval.End.String(),
			b.OwnerID,
			b.OwnerEmail,
			b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writer.WriteAll(records); err != nil {
		// Headers are already on the wire, so the failure can only be logged.
		logger.ErrorContext(r.Context(), "failed to stream export", "error", err)
		return
	}

	logger.With("result_count", len(all)).InfoContext(r.Context(), "bookings exported")
}
