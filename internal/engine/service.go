// Package engine admits or rejects booking requests. It is the only write
// path into the reservation store: every request is validated, authorized,
// and then delegated to the store's atomic commit, so the non-overlap
// invariant can never be bypassed from here.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// ReservationStore captures the store interactions needed for admission
// decisions. The conflict check and insert behind TryCommit are one atomic
// unit; the engine never checks availability separately before committing.
type ReservationStore interface {
	TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error)
	Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error)
}

// RoomDirectory reports whether a room id belongs to the catalog.
type RoomDirectory interface {
	Contains(roomID string) bool
}

// AvailabilityInvalidator drops cached availability for a room and date after
// the confirmed set changes.
type AvailabilityInvalidator interface {
	Invalidate(roomID string, date booking.Date)
}

// Notifier announces admission outcomes out of band. Implementations log
// their own failures; the engine fires them in a goroutine and never waits.
type Notifier interface {
	BookingConfirmed(ctx context.Context, confirmed booking.Booking)
	BookingCancelled(ctx context.Context, cancelled booking.Booking)
}

// BookingRequest carries one admission attempt.
type BookingRequest struct {
	RoomID   string
	Date     booking.Date
	Interval booking.Interval
}

// Service orchestrates validation, authorization, and the atomic commit for
// booking operations.
type Service struct {
	store    ReservationStore
	rooms    RoomDirectory
	cache    AvailabilityInvalidator
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires dependencies for admission operations.
func NewService(store ReservationStore, rooms RoomDirectory, cache AvailabilityInvalidator, notifier Notifier) *Service {
	return NewServiceWithLogger(store, rooms, cache, notifier, nil)
}

// NewServiceWithLogger constructs a Service with a specified logger.
func NewServiceWithLogger(store ReservationStore, rooms RoomDirectory, cache AvailabilityInvalidator, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		rooms:    rooms,
		cache:    cache,
		notifier: notifier,
		logger:   defaultLogger(logger),
	}
}

func (s *Service) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, operation, attrs...)
}

// RequestBooking validates the request and delegates the atomic commit. On
// success the confirmed booking is returned, the availability cache for the
// room and date is dropped, and the notifier is fired asynchronously.
func (s *Service) RequestBooking(ctx context.Context, requester booking.Identity, request BookingRequest) (confirmed booking.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("Service is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "RequestBooking",
		"room_id", request.RoomID,
		"date", request.Date.String(),
		"interval", request.Interval.String(),
		"user_id", requester.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"booking_id", confirmed.ID,
		).InfoContext(ctx, "booking confirmed")
	}()

	if requester.IsZero() {
		err = ErrUnauthenticated
		return
	}

	vErr := &ValidationError{}
	if request.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if ivErr := request.Interval.Validate(); ivErr != nil {
		vErr.add("interval", ivErr.Error())
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.rooms != nil && !s.rooms.Contains(request.RoomID) {
		err = ErrUnknownRoom
		return
	}

	confirmed, err = s.store.TryCommit(ctx, booking.Input{
		RoomID:     request.RoomID,
		Date:       request.Date,
		Interval:   request.Interval,
		OwnerID:    requester.UserID,
		OwnerEmail: requester.Email,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.invalidate(confirmed.RoomID, confirmed.Date)
	if s.notifier != nil {
		go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), confirmed)
	}
	return confirmed, nil
}

// CancelBooking removes a booking on behalf of its owner or an admin. The
// store enforces ownership; Forbidden and NotFound surface unchanged.
func (s *Service) CancelBooking(ctx context.Context, requester booking.Identity, bookingID string) (err error) {
	if s == nil {
		err = fmt.Errorf("Service is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"booking_id", bookingID,
		"user_id", requester.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "cancellation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	if requester.IsZero() {
		err = ErrUnauthenticated
		return
	}

	cancelled, err := s.store.Cancel(ctx, bookingID, requester)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.invalidate(cancelled.RoomID, cancelled.Date)
	if s.notifier != nil {
		go s.notifier.BookingCancelled(context.WithoutCancel(ctx), cancelled)
	}
	return nil
}

func (s *Service) invalidate(roomID string, date booking.Date) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(roomID, date)
}
