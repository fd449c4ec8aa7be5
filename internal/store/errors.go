package store

import (
	"errors"
	"fmt"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

var (
	// ErrNotFound is returned when the requested booking does not exist.
	ErrNotFound = errors.New("store: booking not found")
	// ErrForbidden is returned when the requester may not cancel the booking.
	ErrForbidden = errors.New("store: requester may not cancel this booking")
	// ErrBusy is returned when the per-room serialization primitive could not
	// be acquired within the operation deadline. The caller may retry.
	ErrBusy = errors.New("store: room busy, retry later")
	// ErrUnavailable is returned when the backing medium is unreachable. It
	// must never be interpreted as the absence of a conflict.
	ErrUnavailable = errors.New("store: persistence unavailable")
)

// ConflictError reports the existing booking that blocked a TryCommit. It
// carries the colliding owner and interval so callers can surface them.
type ConflictError struct {
	BookingID string
	OwnerID   string
	Interval  booking.Interval
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "store: slot conflict"
	}
	return fmt.Sprintf("store: slot already booked by %s for %s", e.OwnerID, e.Interval)
}

// AsConflict unwraps a *ConflictError from err when present.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
