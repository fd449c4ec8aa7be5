package http

import (
	"context"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity returns a derived context carrying the verified caller.
func ContextWithIdentity(ctx context.Context, ident booking.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, ident)
}

// IdentityFromContext extracts the verified caller from context if available.
func IdentityFromContext(ctx context.Context) (booking.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey).(booking.Identity)
	return ident, ok
}
