package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

// Store keeps confirmed bookings in process memory. It honors the same
// contract as the durable drivers: the conflict check and insert inside
// TryCommit are exclusive per room, so concurrent commits for one room
// linearize while other rooms proceed untouched.
//
// Beyond tests, it backs deployments that accept losing bookings on restart.
type Store struct {
	mu       sync.RWMutex
	bookings map[string]booking.Booking

	roomLocks   *store.KeyLock
	idGenerator func() string
	now         func() time.Time
}

// NewStore constructs an empty in-memory store. A nil idGenerator defaults to
// random UUIDs and a nil now defaults to the wall clock.
func NewStore(idGenerator func() string, now func() time.Time) *Store {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		bookings:    make(map[string]booking.Booking),
		roomLocks:   store.NewKeyLock(),
		idGenerator: idGenerator,
		now:         now,
	}
}

// TryCommit implements store.ReservationStore.
func (s *Store) TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error) {
	if err := input.Interval.Validate(); err != nil {
		return booking.Booking{}, err
	}

	release, err := s.roomLocks.Acquire(ctx, input.RoomID)
	if err != nil {
		return booking.Booking{}, err
	}
	defer release()

	existing := s.snapshotRoomDate(input.RoomID, input.Date)
	if conflict, ok := booking.FindConflict(existing, input); ok {
		return booking.Booking{}, &store.ConflictError{
			BookingID: conflict.BookingID,
			OwnerID:   conflict.OwnerID,
			Interval:  conflict.Interval,
		}
	}

	confirmed := booking.Booking{
		ID:         s.idGenerator(),
		RoomID:     input.RoomID,
		Date:       input.Date,
		Interval:   input.Interval,
		OwnerID:    input.OwnerID,
		OwnerEmail: input.OwnerEmail,
		CreatedAt:  s.now().UTC(),
	}

	s.mu.Lock()
	s.bookings[confirmed.ID] = confirmed
	s.mu.Unlock()

	return confirmed, nil
}

// Cancel implements store.ReservationStore.
func (s *Store) Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error) {
	s.mu.RLock()
	existing, ok := s.bookings[bookingID]
	s.mu.RUnlock()
	if !ok {
		return booking.Booking{}, store.ErrNotFound
	}

	// Serialize with commits for the same room so the removal is ordered
	// against concurrent conflict checks.
	release, err := s.roomLocks.Acquire(ctx, existing.RoomID)
	if err != nil {
		return booking.Booking{}, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[bookingID]
	if !ok {
		return booking.Booking{}, store.ErrNotFound
	}
	if err := store.AuthorizeCancel(current, requester); err != nil {
		return booking.Booking{}, err
	}

	delete(s.bookings, bookingID)
	return current, nil
}

// ListByRoomAndDate implements store.ReservationStore.
func (s *Store) ListByRoomAndDate(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error) {
	out := s.snapshotRoomDate(roomID, date)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Interval.Start == out[j].Interval.Start {
			return out[i].ID < out[j].ID
		}
		return out[i].Interval.Start < out[j].Interval.Start
	})
	return out, nil
}

// ListAll implements store.ReservationStore.
func (s *Store) ListAll(ctx context.Context) ([]booking.Booking, error) {
	s.mu.RLock()
	out := make([]booking.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.String() < b.Date.String()
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if a.Interval.Start != b.Interval.Start {
			return a.Interval.Start < b.Interval.Start
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) snapshotRoomDate(roomID string, date booking.Date) []booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []booking.Booking
	for _, b := range s.bookings {
		if b.RoomID == roomID && b.Date == date {
			out = append(out, b)
		}
	}
	return out
}
