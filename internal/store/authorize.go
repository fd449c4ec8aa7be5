package store

import "github.com/Mikkung/MeetingRoom-Proj/internal/booking"

// AuthorizeCancel applies the ownership rule shared by every driver: owners
// may cancel their own bookings, admins may cancel any. It returns
// ErrForbidden otherwise and leaves the booking untouched.
func AuthorizeCancel(b booking.Booking, requester booking.Identity) error {
	switch requester.Role {
	case booking.RoleAdmin:
		return nil
	case booking.RoleUser:
		if requester.UserID == b.OwnerID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
