package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
)

type bookingAdmitter interface {
	RequestBooking(ctx context.Context, requester booking.Identity, request engine.BookingRequest) (booking.Booking, error)
	CancelBooking(ctx context.Context, requester booking.Identity, bookingID string) error
}

type bookingLister interface {
	RoomBookings(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error)
}

type roomChecker interface {
	Contains(roomID string) bool
}

// BookingHandler serves the booking routes: admission, cancellation, and the
// per-room listing.
type BookingHandler struct {
	engine    bookingAdmitter
	listings  bookingLister
	rooms     roomChecker
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(admitter bookingAdmitter, listings bookingLister, rooms roomChecker, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{
		engine:    admitter,
		listings:  listings,
		rooms:     rooms,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requester, _ := IdentityFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "user_id", requester.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	request, fields := req.toBookingRequest()
	if len(fields) > 0 {
		h.log(r.Context(), "Create", "user_id", requester.UserID, "error_kind", "invalid_interval").ErrorContext(r.Context(), "booking request fields are malformed")
		h.responder.writeFieldErrors(r.Context(), w, fields)
		return
	}

	logger := h.log(r.Context(), "Create",
		"user_id", requester.UserID,
		"room_id", request.RoomID,
		"date", request.Date.String(),
	)

	confirmed, err := h.engine.RequestBooking(r.Context(), requester, request)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking request rejected", "error", err, "error_kind", engine.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", confirmed.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(confirmed)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "bookingID"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	requester, _ := IdentityFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "user_id", requester.UserID, "booking_id", bookingID)

	if err := h.engine.CancelBooking(r.Context(), requester, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "cancellation rejected", "error", err, "error_kind", engine.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.listings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingRoomID)
		return
	}
	if h.rooms != nil && !h.rooms.Contains(roomID) {
		h.responder.handleServiceError(r.Context(), w, engine.ErrUnknownRoom)
		return
	}

	date, err := booking.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.responder.writeFieldErrors(r.Context(), w, map[string]string{
			"date": "date must be formatted as 2006-01-02",
		})
		return
	}

	listed, err := h.listings.RoomBookings(r.Context(), roomID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(listed)})
}

type bookingRequest struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// toBookingRequest parses the wire fields into domain types. Parse failures
// are reported per field; semantic checks such as interval ordering stay with
// the engine.
func (r bookingRequest) toBookingRequest() (engine.BookingRequest, map[string]string) {
	fields := make(map[string]string)

	date, err := booking.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		fields["date"] = "date must be formatted as 2006-01-02"
	}
	start, err := booking.ParseTimeOfDay(strings.TrimSpace(r.Start))
	if err != nil {
		fields["start"] = "start must be formatted as 15:04"
	}
	end, err := booking.ParseTimeOfDay(strings.TrimSpace(r.End))
	if err != nil {
		fields["end"] = "end must be formatted as 15:04"
	}
	if len(fields) > 0 {
		return engine.BookingRequest{}, fields
	}

	return engine.BookingRequest{
		RoomID:   strings.TrimSpace(r.RoomID),
		Date:     date,
		Interval: booking.Interval{Start: start, End: end},
	}, nil
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	OwnerID    string `json:"owner_id"`
	OwnerEmail string `json:"owner_email,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toBookingDTO(b booking.Booking) bookingDTO {
	return bookingDTO{
		ID:         b.ID,
		RoomID:     b.RoomID,
		Date:       b.Date.String(),
		Start:      b.Interval.Start.String(),
		End:        b.Interval.End.String(),
		OwnerID:    b.OwnerID,
		OwnerEmail: b.OwnerEmail,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []booking.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}
