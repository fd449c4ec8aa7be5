// Package http exposes the booking admission API over REST.
//
// The router serves the following endpoints:
//   - GET /healthz: liveness probe answered inside the middleware chain.
//   - GET /api/rooms: lists the room catalog. Public.
//   - GET /api/availability?date=2024-06-01: renders the free/busy grid for
//     every catalog room on the date. The date defaults to today. Public.
//   - GET /api/bookings?room_id=...&date=...: lists the confirmed bookings for
//     one room and date. Requires a bearer token.
//   - POST /api/bookings: requests admission of a booking. Body:
//     {"room_id","date","start","end"}. Responds 201 with the confirmed
//     booking, or 409 naming the owner of the colliding booking. Requires a
//     bearer token.
//   - DELETE /api/bookings/{bookingID}: cancels a booking owned by the caller;
//     administrators may cancel any booking. Responds 204. Requires a bearer
//     token.
//   - GET /api/bookings/export: streams every confirmed booking as a CSV
//     attachment. Requires an administrator bearer token.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
