package booking

import (
	"fmt"
	"time"
)

// Role identifies the privilege level attached to an authenticated identity.
type Role string

const (
	// RoleUser marks a regular employee who may manage only their own bookings.
	RoleUser Role = "user"
	// RoleAdmin marks an administrator who may cancel any booking and export data.
	RoleAdmin Role = "admin"
)

// ParseRole normalises a role string supplied by the identity boundary.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("booking: unknown role %q", value)
	}
}

// Valid reports whether the role is one of the recognised values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity represents the authenticated caller of a booking operation. It is
// supplied by an external identity provider and trusted as already
// authenticated; the engine never inspects credentials.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// IsZero reports whether no identity was attached to the request.
func (id Identity) IsZero() bool {
	return id.UserID == ""
}

// Booking represents a confirmed reservation of one room for one half-open
// interval on one date. Bookings are never mutated in place; changes are
// modelled as cancel plus re-book.
type Booking struct {
	ID         string
	RoomID     string
	Date       Date
	Interval   Interval
	OwnerID    string
	OwnerEmail string
	CreatedAt  time.Time
}

// Input captures the caller supplied fields of a booking candidate before the
// store assigns identity and timestamps.
type Input struct {
	RoomID     string
	Date       Date
	Interval   Interval
	OwnerID    string
	OwnerEmail string
}
