// Package notify announces booking outcomes on side channels. Senders run
// off the request path; failures are logged, never surfaced to callers.
package notify

import (
	"context"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// Noop discards every notification. It stands in wherever no channel is
// configured.
type Noop struct{}

// BookingConfirmed implements the engine's notifier contract.
func (Noop) BookingConfirmed(context.Context, booking.Booking) {}

// BookingCancelled implements the engine's notifier contract.
func (Noop) BookingCancelled(context.Context, booking.Booking) {}
