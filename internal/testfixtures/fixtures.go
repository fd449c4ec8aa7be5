// Package testfixtures supplies deterministic fixtures and pre-wired service
// stacks for tests across the module. Everything here is reproducible: ids
// come from counters, timestamps from a controllable clock, and generated
// bookings land on the built-in room catalog so they pass catalog checks
// without extra setup.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/catalog"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
)

var (
	bookingCounter  uint64
	identityCounter uint64
	roomCounter     uint64
)

var referenceTime = time.Date(2024, time.June, 3, 7, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures:
// a Monday morning shortly before the booking day opens.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar day of ReferenceTime, the default date
// generated bookings land on.
func ReferenceDate() booking.Date {
	return booking.Date{Year: referenceTime.Year(), Month: referenceTime.Month(), Day: referenceTime.Day()}
}

// DefaultRoomID returns the first room of the built-in catalog. Booking
// fixtures reference it so they are accepted without a custom catalog.
func DefaultRoomID() string {
	return catalog.Default().Rooms()[0].ID
}

// MustDate parses a "2006-01-02" date literal, panicking on malformed input.
// Fixtures and tests use it to keep date literals readable.
func MustDate(value string) booking.Date {
	date, err := booking.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return date
}

// MustInterval parses "15:04" start and end literals into a half-open
// interval, panicking on malformed or inverted input.
func MustInterval(start, end string) booking.Interval {
	s, err := booking.ParseTimeOfDay(start)
	if err != nil {
		panic(err)
	}
	e, err := booking.ParseTimeOfDay(end)
	if err != nil {
		panic(err)
	}
	iv, err := booking.NewInterval(s, e)
	if err != nil {
		panic(err)
	}
	return iv
}

// --------------------------- Identity fixtures ---------------------------

// IdentityFixture represents a deterministic authenticated caller.
type IdentityFixture struct {
	UserID string
	Email  string
	Role   booking.Role
}

// IdentityOption configures the generated identity fixture.
type IdentityOption func(*IdentityFixture)

// NewIdentityFixture returns a deterministic regular-user identity with
// optional overrides.
func NewIdentityFixture(opts ...IdentityOption) IdentityFixture {
	idx := atomic.AddUint64(&identityCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := IdentityFixture{
		UserID: id,
		Email:  fmt.Sprintf("%s@example.com", id),
		Role:   booking.RoleUser,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithIdentityUserID overrides the generated user ID. The email follows
// unless overridden separately.
func WithIdentityUserID(id string) IdentityOption {
	return func(f *IdentityFixture) {
		f.UserID = id
		f.Email = fmt.Sprintf("%s@example.com", id)
	}
}

// WithIdentityEmail overrides the generated email address.
func WithIdentityEmail(email string) IdentityOption {
	return func(f *IdentityFixture) {
		f.Email = email
	}
}

// WithIdentityRole overrides the generated role.
func WithIdentityRole(role booking.Role) IdentityOption {
	return func(f *IdentityFixture) {
		f.Role = role
	}
}

// AsAdmin marks the generated identity as an administrator.
func AsAdmin() IdentityOption {
	return WithIdentityRole(booking.RoleAdmin)
}

// Identity returns the fixture as a booking.Identity value.
func (f IdentityFixture) Identity() booking.Identity {
	return booking.Identity{
		UserID: f.UserID,
		Email:  f.Email,
		Role:   f.Role,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic catalog room entry.
type RoomFixture struct {
	ID           string
	Capacity     int
	HasProjector bool
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:           fmt.Sprintf("room-%03d", idx),
		Capacity:     int(4 + idx%4),
		HasProjector: idx%2 == 1,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomProjector sets the projector flag on the fixture.
func WithRoomProjector(has bool) RoomOption {
	return func(f *RoomFixture) {
		f.HasProjector = has
	}
}

// Room returns the fixture as a catalog.Room value.
func (f RoomFixture) Room() catalog.Room {
	return catalog.Room{
		ID:           f.ID,
		Capacity:     f.Capacity,
		HasProjector: f.HasProjector,
	}
}

// Catalog builds a catalog from the supplied room fixtures, panicking on
// invalid entries so broken fixtures fail loudly at test setup.
func Catalog(rooms ...RoomFixture) *catalog.Catalog {
	entries := make([]catalog.Room, 0, len(rooms))
	for _, room := range rooms {
		entries = append(entries, room.Room())
	}
	built, err := catalog.New(entries)
	if err != nil {
		panic(err)
	}
	return built
}

// --------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic confirmed booking. Successive
// fixtures occupy successive one-hour slots of the 08:00-16:00 day on the
// reference date, so unmodified fixtures never collide with each other.
type BookingFixture struct {
	ID         string
	RoomID     string
	Date       booking.Date
	Interval   booking.Interval
	OwnerID    string
	OwnerEmail string
	CreatedAt  time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional
// overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	owner := fmt.Sprintf("user-%03d", idx)
	start := booking.TimeOfDay(8*60 + int((idx-1)%8)*60)
	fixture := BookingFixture{
		ID:         fmt.Sprintf("booking-%03d", idx),
		RoomID:     DefaultRoomID(),
		Date:       ReferenceDate(),
		Interval:   booking.Interval{Start: start, End: start + 60},
		OwnerID:    owner,
		OwnerEmail: fmt.Sprintf("%s@example.com", owner),
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRoom sets the room the booking occupies.
func WithBookingRoom(roomID string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
	}
}

// WithBookingDate sets the calendar day of the booking.
func WithBookingDate(date booking.Date) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
	}
}

// WithBookingInterval sets the half-open interval of the booking.
func WithBookingInterval(interval booking.Interval) BookingOption {
	return func(f *BookingFixture) {
		f.Interval = interval
	}
}

// WithBookingSlot sets the interval from "15:04" start and end literals.
func WithBookingSlot(start, end string) BookingOption {
	return WithBookingInterval(MustInterval(start, end))
}

// WithBookingOwner sets the owner id and derives a matching email.
func WithBookingOwner(ownerID string) BookingOption {
	return func(f *BookingFixture) {
		f.OwnerID = ownerID
		f.OwnerEmail = fmt.Sprintf("%s@example.com", ownerID)
	}
}

// WithBookingOwnerEmail overrides just the owner email.
func WithBookingOwnerEmail(email string) BookingOption {
	return func(f *BookingFixture) {
		f.OwnerEmail = email
	}
}

// WithBookingCreatedAt sets the creation timestamp.
func WithBookingCreatedAt(t time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = t
	}
}

// Booking returns the fixture as a confirmed booking.Booking value.
func (f BookingFixture) Booking() booking.Booking {
	return booking.Booking{
		ID:         f.ID,
		RoomID:     f.RoomID,
		Date:       f.Date,
		Interval:   f.Interval,
		OwnerID:    f.OwnerID,
		OwnerEmail: f.OwnerEmail,
		CreatedAt:  f.CreatedAt,
	}
}

// Input returns the fixture as a booking.Input candidate, dropping the
// store-assigned id and timestamp.
func (f BookingFixture) Input() booking.Input {
	return booking.Input{
		RoomID:     f.RoomID,
		Date:       f.Date,
		Interval:   f.Interval,
		OwnerID:    f.OwnerID,
		OwnerEmail: f.OwnerEmail,
	}
}

// Request returns the fixture as an admission request for the engine. The
// owner travels separately as the requester identity.
func (f BookingFixture) Request() engine.BookingRequest {
	return engine.BookingRequest{
		RoomID:   f.RoomID,
		Date:     f.Date,
		Interval: f.Interval,
	}
}

// Owner returns the fixture's owner as an identity fixture.
func (f BookingFixture) Owner() IdentityFixture {
	return IdentityFixture{
		UserID: f.OwnerID,
		Email:  f.OwnerEmail,
		Role:   booking.RoleUser,
	}
}
