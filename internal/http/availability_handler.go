package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/availability"
	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

type gridProjector interface {
	Grid(ctx context.Context, date booking.Date) (availability.Grid, error)
}

// AvailabilityHandler serves the public free/busy grid.
type AvailabilityHandler struct {
	service   gridProjector
	responder responder
	now       func() time.Time
}

// NewAvailabilityHandler wires the grid route. A nil now falls back to the
// wall clock; tests inject a fixed one so the default date is deterministic.
func NewAvailabilityHandler(service gridProjector, now func() time.Time, logger *slog.Logger) *AvailabilityHandler {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityHandler{
		service:   service,
		responder: newResponder(defaultLogger(logger)),
		now:       now,
	}
}

func (h *AvailabilityHandler) Grid(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := h.dateParam(r)
	if err != nil {
		h.responder.writeFieldErrors(r.Context(), w, map[string]string{
			"date": "date must be formatted as 2006-01-02",
		})
		return
	}

	grid, err := h.service.Grid(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridDTO(grid))
}

// dateParam resolves the requested date, defaulting to today when the query
// parameter is absent.
func (h *AvailabilityHandler) dateParam(r *http.Request) (booking.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		today := h.now()
		return booking.Date{Year: today.Year(), Month: today.Month(), Day: today.Day()}, nil
	}
	return booking.ParseDate(raw)
}

type gridDTO struct {
	Date  string       `json:"date"`
	Rooms []roomRowDTO `json:"rooms"`
}

type roomRowDTO struct {
	RoomID string    `json:"room_id"`
	Slots  []slotDTO `json:"slots"`
}

type slotDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Booked  bool   `json:"booked"`
	OwnerID string `json:"owner_id,omitempty"`
}

func toGridDTO(grid availability.Grid) gridDTO {
	rooms := make([]roomRowDTO, 0, len(grid.Rooms))
	for _, row := range grid.Rooms {
		slots := make([]slotDTO, 0, len(row.Slots))
		for _, slot := range row.Slots {
			slots = append(slots, slotDTO{
				Start:   slot.Interval.Start.String(),
				End:     slot.Interval.End.String(),
				Booked:  slot.Booked,
				OwnerID: slot.OwnerID,
			})
		}
		rooms = append(rooms, roomRowDTO{RoomID: row.RoomID, Slots: slots})
	}
	return gridDTO{Date: grid.Date.String(), Rooms: rooms}
}
