package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

const bookingColumns = "id, room_id, day, start_minute, end_minute, owner_id, owner_email, created_at"

// Store implements store.ReservationStore on SQLite. The conflict check and
// insert inside TryCommit run under the same per-room lock the in-memory
// driver uses, so commits for one room linearize while other rooms proceed;
// SQLite adds durability underneath. The lock lives in process memory, which
// assumes a single process owns the database file.
type Store struct {
	db          *DB
	roomLocks   *store.KeyLock
	idGenerator func() string
	now         func() time.Time
}

// NewStore builds a booking store on an open database. A nil idGenerator
// defaults to random UUIDs and a nil now defaults to the wall clock.
func NewStore(db *DB, idGenerator func() string, now func() time.Time) *Store {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		db:          db,
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

	confirmed := booking.Booking{
		ID:         s.idGenerator(),
		RoomID:     input.RoomID,
		Date:       input.Date,
		Interval:   input.Interval,
		OwnerID:    input.OwnerID,
		OwnerEmail: input.OwnerEmail,
		CreatedAt:  s.now().UTC(),
	}

	err = s.db.withTransaction(ctx, func(tx *sql.Tx) error {
		// Half-open overlap: an existing booking collides iff it starts
		// before the candidate ends and ends after the candidate starts.
		row := tx.QueryRowContext(ctx, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE room_id = ? AND day = ? AND start_minute < ? AND ? < end_minute
			ORDER BY start_minute
			LIMIT 1`,
			input.RoomID, input.Date.String(), int(input.Interval.End), int(input.Interval.Start),
		)

		existing, scanErr := scanBooking(row)
		if scanErr == nil {
			return &store.ConflictError{
				BookingID: existing.ID,
				OwnerID:   existing.OwnerID,
				Interval:  existing.Interval,
			}
		}
		if !errors.Is(scanErr, store.ErrNotFound) {
			return scanErr
		}

		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			confirmed.ID, confirmed.RoomID, confirmed.Date.String(),
			int(confirmed.Interval.Start), int(confirmed.Interval.End),
			confirmed.OwnerID, confirmed.OwnerEmail,
			confirmed.CreatedAt.Format(time.RFC3339Nano),
		)
		if execErr != nil {
			return mapSQLiteError(execErr)
		}
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	return confirmed, nil
}

// Cancel implements store.ReservationStore.
func (s *Store) Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error) {
	existing, err := s.lookup(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, err
	}

	// Serialize with commits for the same room so the removal is ordered
	// against concurrent conflict checks.
	release, err := s.roomLocks.Acquire(ctx, existing.RoomID)
	if err != nil {
		return booking.Booking{}, err
	}
	defer release()

	var removed booking.Booking
	err = s.db.withTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, bookingID)
		current, scanErr := scanBooking(row)
		if scanErr != nil {
			return scanErr
		}
		if authErr := store.AuthorizeCancel(current, requester); authErr != nil {
			return authErr
		}
		if _, execErr := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID); execErr != nil {
			return mapSQLiteError(execErr)
		}
		removed = current
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	return removed, nil
}

// ListByRoomAndDate implements store.ReservationStore.
func (s *Store) ListByRoomAndDate(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE room_id = ? AND day = ?
		ORDER BY start_minute, id`,
		roomID, date.String(),
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListAll implements store.ReservationStore.
func (s *Store) ListAll(ctx context.Context) ([]booking.Booking, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY day, room_id, start_minute, id`,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *Store) lookup(ctx context.Context, bookingID string) (booking.Booking, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, bookingID)
	return scanBooking(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b         booking.Booking
		day       string
		start     int
		end       int
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.RoomID, &day, &start, &end, &b.OwnerID, &b.OwnerEmail, &createdAt); err != nil {
		return booking.Booking{}, mapSQLiteError(err)
	}

	date, err := booking.ParseDate(day)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("decode stored day: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("decode stored created_at: %w", err)
	}

	b.Date = date
	b.Interval = booking.Interval{Start: booking.TimeOfDay(start), End: booking.TimeOfDay(end)}
	b.CreatedAt = ts
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]booking.Booking, error) {
	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return out, nil
}
