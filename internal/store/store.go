package store

import (
	"context"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// ReservationStore is the sole source of truth for confirmed bookings. The
// conflict check and the insert inside TryCommit form one atomic unit,
// serialized per room; that is the guarantee every driver must honor.
type ReservationStore interface {
	// TryCommit atomically verifies that no confirmed booking for the
	// candidate's room and date overlaps its interval, and inserts the
	// candidate if so. On overlap it returns a *ConflictError carrying the
	// colliding booking's owner and interval; no partial write occurs.
	// Commits for distinct rooms proceed in parallel.
	TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error)

	// Cancel removes the booking iff the requester owns it or holds the
	// admin role, and returns the removed booking. It returns ErrNotFound
	// for unknown or already cancelled ids and ErrForbidden when the
	// requester may not cancel; the booking is left intact in that case.
	// Removal is immediately visible to subsequent TryCommit calls for
	// the room.
	Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error)

	// ListByRoomAndDate returns the confirmed bookings for one room on one
	// date, ordered by start time.
	ListByRoomAndDate(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error)

	// ListAll returns every confirmed booking, ordered by date, room, and
	// start time.
	ListAll(ctx context.Context) ([]booking.Booking, error)
}
