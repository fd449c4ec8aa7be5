package postgres

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

// Store implements store.ReservationStore on PostgreSQL. Every commit takes
// pg_advisory_xact_lock on the room id inside its transaction, so the
// conflict check and insert for one room linearize across every process
// connected to the cluster; commits for other rooms never wait.
type Store struct {
	db          *DB
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
		idGenerator: idGenerator,
		now:         now,
	}
}

// lockRoom serializes the transaction against every other transaction
// holding the same room. The lock is released automatically at commit or
// rollback; a context deadline while waiting surfaces as ErrBusy through
// the error mapper.
func lockRoom(ctx context.Context, tx *sql.Tx, roomID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, roomID); err != nil {
		return mapPostgresError(err)
	}
	return nil
}

// TryCommit implements store.ReservationStore.
func (s *Store) TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error) {
	if err := input.Interval.Validate(); err != nil {
		return booking.Booking{}, err
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

	err := s.db.withTransaction(ctx, func(tx *sql.Tx) error {
		if err := lockRoom(ctx, tx, input.RoomID); err != nil {
			return err
		}

		// Half-open overlap: an existing booking collides iff it starts
		// before the candidate ends and ends after the candidate starts.
		row := tx.QueryRowContext(ctx, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE room_id = $1 AND day = $2 AND start_minute < $3 AND $4 < end_minute
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			confirmed.ID, confirmed.RoomID, confirmed.Date.String(),
			int(confirmed.Interval.Start), int(confirmed.Interval.End),
			confirmed.OwnerID, confirmed.OwnerEmail, confirmed.CreatedAt,
		)
		if execErr != nil {
			return mapPostgresError(execErr)
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

	var removed booking.Booking
	err = s.db.withTransaction(ctx, func(tx *sql.Tx) error {
		// The room lock orders the removal against concurrent conflict
		// checks for the same room.
		if err := lockRoom(ctx, tx, existing.RoomID); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
		current, scanErr := scanBooking(row)
		if scanErr != nil {
			return scanErr
		}
		if authErr := store.AuthorizeCancel(current, requester); authErr != nil {
			return authErr
		}
		if _, execErr := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID); execErr != nil {
			return mapPostgresError(execErr)
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
		WHERE room_id = $1 AND day = $2
		ORDER BY start_minute, id`,
		roomID, date.String(),
	)
	if err != nil {
		return nil, mapPostgresError(err)
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
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *Store) lookup(ctx context.Context, bookingID string) (booking.Booking, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
	return scanBooking(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b     booking.Booking
		day   string
		start int
		end   int
	)
	if err := row.Scan(&b.ID, &b.RoomID, &day, &start, &end, &b.OwnerID, &b.OwnerEmail, &b.CreatedAt); err != nil {
		return booking.Booking{}, mapPostgresError(err)
	}

	date, err := booking.ParseDate(day)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("decode stored day: %w", err)
	}

	b.Date = date
	b.Interval = booking.Interval{Start: booking.TimeOfDay(start), End: booking.TimeOfDay(end)}
	b.CreatedAt = b.CreatedAt.UTC()
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
		return nil, mapPostgresError(err)
	}
	return out, nil
}
