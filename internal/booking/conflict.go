package booking

// Conflict details the existing booking that blocks a candidate, carrying
// enough context for callers to pick another slot.
type Conflict struct {
	BookingID string
	OwnerID   string
	Interval  Interval
}

// FindConflict scans existing bookings for the first one on the candidate's
// room and date that overlaps the candidate interval. Store implementations
// share this predicate so every driver applies identical overlap semantics.
//
// The scan is deterministic: among overlapping bookings the one with the
// earliest start wins, with the booking id as tie breaker.
func FindConflict(existing []Booking, candidate Input) (Conflict, bool) {
	var (
		found Conflict
		ok    bool
	)
	for _, b := range existing {
		if b.RoomID != candidate.RoomID || b.Date != candidate.Date {
			continue
		}
		if !b.Interval.Overlaps(candidate.Interval) {
			continue
		}
		if !ok || earlier(b, found) {
			found = Conflict{BookingID: b.ID, OwnerID: b.OwnerID, Interval: b.Interval}
			ok = true
		}
	}
	return found, ok
}

func earlier(b Booking, current Conflict) bool {
	if b.Interval.Start != current.Interval.Start {
		return b.Interval.Start < current.Interval.Start
	}
	return b.ID < current.BookingID
}

// Overlapping filters bookings down to those on the given date that overlap
// the interval, preserving input order. The availability projector uses it to
// mark busy slots.
func Overlapping(bookings []Booking, date Date, interval Interval) []Booking {
	var out []Booking
	for _, b := range bookings {
		if b.Date != date {
			continue
		}
		if b.Interval.Overlaps(interval) {
			out = append(out, b)
		}
	}
	return out
}
