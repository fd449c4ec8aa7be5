package engine

import (
	"errors"
	"fmt"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

var (
	// ErrUnauthenticated is returned when a request carries no verified identity.
	ErrUnauthenticated = errors.New("engine: unauthenticated")
	// ErrUnknownRoom is returned when the requested room is not in the catalog.
	ErrUnknownRoom = errors.New("engine: unknown room")
	// ErrForbidden is returned when the identity may not act on the booking.
	ErrForbidden = errors.New("engine: forbidden")
	// ErrNotFound is returned when the requested booking does not exist.
	ErrNotFound = errors.New("engine: booking not found")
	// ErrBusy is returned when the store could not serialize the request within
	// its deadline. The request was not applied and is safe to retry.
	ErrBusy = errors.New("engine: store busy")
	// ErrStoreUnavailable is returned when the store cannot be reached. It is
	// never downgraded to an admit or a conflict.
	ErrStoreUnavailable = errors.New("engine: store unavailable")
)

// SlotConflictError rejects an admission because a confirmed booking already
// occupies part of the requested interval. It names the colliding booking so
// callers can tell users who holds the slot.
type SlotConflictError struct {
	OwnerID  string
	Interval booking.Interval
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("engine: slot already booked by %s for %s", e.OwnerID, e.Interval)
}

// AsSlotConflict unwraps err into a SlotConflictError when possible.
func AsSlotConflict(err error) (*SlotConflictError, bool) {
	var conflict *SlotConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// mapStoreError translates store sentinels into the engine taxonomy so
// callers never depend on the driver packages.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if conflict, ok := store.AsConflict(err); ok {
		return &SlotConflictError{OwnerID: conflict.OwnerID, Interval: conflict.Interval}
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, store.ErrBusy):
		return ErrBusy
	case errors.Is(err, store.ErrUnavailable):
		return ErrStoreUnavailable
	}
	return err
}
