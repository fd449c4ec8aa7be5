// Package availability renders free/busy grids over the confirmed booking
// set. Projection is a pure function; the read cache in this package bounds
// staleness on the list path and is never consulted by commits.
package availability

import (
	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// Window bounds the visible day. Slots are generated in [Start, End) with
// SlotMinutes resolution.
type Window struct {
	Start       booking.TimeOfDay
	End         booking.TimeOfDay
	SlotMinutes int
}

// DefaultWindow is the 08:00-17:00 half-hour grid used when nothing else is
// configured.
func DefaultWindow() Window {
	return Window{Start: 8 * 60, End: 17 * 60, SlotMinutes: 30}
}

func (w Window) normalized() Window {
	def := DefaultWindow()
	if w.SlotMinutes <= 0 {
		w.SlotMinutes = def.SlotMinutes
	}
	if w.Start >= w.End {
		w.Start, w.End = def.Start, def.End
	}
	return w
}

// Slot is one grid cell covering the half-open interval it names. A booked
// slot carries the owner so clients can show who holds it.
type Slot struct {
	Interval booking.Interval
	Booked   bool
	OwnerID  string
}

// RoomRow is the slot sequence for a single room.
type RoomRow struct {
	RoomID string
	Slots  []Slot
}

// Grid is the availability matrix for one date: one row per room, one slot
// per window step.
type Grid struct {
	Date  booking.Date
	Rooms []RoomRow
}

// Project computes the grid for one date. The result depends only on the
// arguments; input ordering does not matter because each slot is marked by
// the earliest overlapping booking.
func Project(date booking.Date, roomIDs []string, bookings []booking.Booking, window Window) Grid {
	window = window.normalized()
	step := booking.TimeOfDay(window.SlotMinutes)

	rows := make([]RoomRow, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		row := RoomRow{RoomID: roomID}
		for start := window.Start; start+step <= window.End; start += step {
			slot := booking.Interval{Start: start, End: start + step}
			mark := Slot{Interval: slot}
			if owner, ok := occupantFor(bookings, roomID, date, slot); ok {
				mark.Booked = true
				mark.OwnerID = owner
			}
			row.Slots = append(row.Slots, mark)
		}
		rows = append(rows, row)
	}
	return Grid{Date: date, Rooms: rows}
}

func occupantFor(bookings []booking.Booking, roomID string, date booking.Date, slot booking.Interval) (string, bool) {
	var (
		best  booking.Booking
		found bool
	)
	for _, b := range booking.Overlapping(bookings, date, slot) {
		if b.RoomID != roomID {
			continue
		}
		if !found || startsBefore(b, best) {
			best = b
			found = true
		}
	}
	return best.OwnerID, found
}

func startsBefore(b, current booking.Booking) bool {
	if b.Interval.Start != current.Interval.Start {
		return b.Interval.Start < current.Interval.Start
	}
	return b.ID < current.ID
}
