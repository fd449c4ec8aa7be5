package http

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mikkung/MeetingRoom-Proj/internal/availability"
	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/catalog"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
	"github.com/Mikkung/MeetingRoom-Proj/internal/identity"
	"github.com/Mikkung/MeetingRoom-Proj/internal/logging"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/memory"
)

const apiTestSecret = "an-adequately-long-secret"

var apiTestNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var (
		mu      sync.Mutex
		counter int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("booking-%d", counter)
	}
}

// newAPI assembles the full router over the in-memory store so requests
// exercise the same wiring as production: verifier, engine, availability
// reads, and the middleware chain.
func newAPI(t *testing.T) http.Handler {
	t.Helper()

	rooms, err := catalog.New([]catalog.Room{
		{ID: "room-a", Capacity: 4, HasProjector: true},
		{ID: "room-b", Capacity: 12},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	logger := logging.New(io.Discard, "error")
	clock := func() time.Time { return apiTestNow }

	st := memory.NewStore(sequentialIDs(), clock)
	cache := availability.NewCache(5*time.Second, 16, clock)
	reads := availability.NewServiceWithLogger(st, rooms, cache, availability.DefaultWindow(), logger)
	admissions := engine.NewServiceWithLogger(st, rooms, reads, nil, logger)

	verifier, err := identity.NewVerifier(apiTestSecret, clock)
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}

	return NewRouter(RouterConfig{
		Rooms:        NewRoomHandler(rooms, logger),
		Availability: NewAvailabilityHandler(reads, clock, logger),
		Bookings:     NewBookingHandler(admissions, reads, rooms, logger),
		Export:       NewExportHandler(reads, logger),
		Verifier:     verifier,
		Logger:       logger,
	})
}

func bearerToken(t *testing.T, userID, email string, role booking.Role) string {
	t.Helper()

	key, err := identity.DeriveKey(apiTestSecret)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}

	claims := identity.Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(apiTestNow),
			ExpiresAt: jwt.NewNumericDate(apiTestNow.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doRequest(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", recorder.Body.String(), err)
	}
	return body
}

func TestAPI_RoomsEndpointListsCatalog(t *testing.T) {
	t.Parallel()

	api := newAPI(t)

	recorder := doRequest(api, http.MethodGet, "/api/rooms", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusOK, recorder.Body.String())
	}

	var body listRoomsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(body.Rooms))
	}
	if body.Rooms[0].ID != "room-a" || !body.Rooms[0].HasProjector || body.Rooms[0].Capacity != 4 {
		t.Fatalf("first room = %+v, want room-a with projector and capacity 4", body.Rooms[0])
	}
	if body.Rooms[1].ID != "room-b" || body.Rooms[1].HasProjector {
		t.Fatalf("second room = %+v, want room-b without projector", body.Rooms[1])
	}
}

func TestAPI_BookingLifecycle(t *testing.T) {
	t.Parallel()

	api := newAPI(t)
	alice := bearerToken(t, "alice", "alice@example.com", booking.RoleUser)
	bob := bearerToken(t, "bob", "bob@example.com", booking.RoleUser)

	requestBody := `{"room_id":"room-a","date":"2024-06-01","start":"09:00","end":"10:00"}`

	recorder := doRequest(api, http.MethodPost, "/api/bookings", "", requestBody)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	recorder = doRequest(api, http.MethodPost, "/api/bookings", alice, requestBody)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body.String())
	}
	var created bookingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created booking: %v", err)
	}
	if created.Booking.ID != "booking-1" || created.Booking.OwnerID != "alice" {
		t.Fatalf("created booking = %+v, want booking-1 owned by alice", created.Booking)
	}
	if created.Booking.Start != "09:00" || created.Booking.End != "10:00" {
		t.Fatalf("created interval = %s-%s, want 09:00-10:00", created.Booking.Start, created.Booking.End)
	}

	recorder = doRequest(api, http.MethodGet, "/api/bookings?room_id=room-a&date=2024-06-01", alice, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want %d: %s", recorder.Code, http.StatusOK, recorder.Body.String())
	}
	var listed listBookingsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listed.Bookings) != 1 || listed.Bookings[0].ID != "booking-1" {
		t.Fatalf("listing = %+v, want only booking-1", listed.Bookings)
	}

	recorder = doRequest(api, http.MethodPost, "/api/bookings", bob,
		`{"room_id":"room-a","date":"2024-06-01","start":"09:30","end":"10:30"}`)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("overlapping create: status = %d, want %d: %s", recorder.Code, http.StatusConflict, recorder.Body.String())
	}
	conflict := decodeError(t, recorder)
	if conflict.ErrorCode != "slot_conflict" {
		t.Fatalf("error_code = %q, want slot_conflict", conflict.ErrorCode)
	}
	if conflict.Conflict == nil || conflict.Conflict.OwnerID != "alice" {
		t.Fatalf("conflict = %+v, want alice named as owner", conflict.Conflict)
	}
	if conflict.Conflict.Start != "09:00" || conflict.Conflict.End != "10:00" {
		t.Fatalf("conflict interval = %s-%s, want 09:00-10:00", conflict.Conflict.Start, conflict.Conflict.End)
	}

	// Touching intervals share a boundary instant, not a slot.
	recorder = doRequest(api, http.MethodPost, "/api/bookings", bob,
		`{"room_id":"room-a","date":"2024-06-01","start":"10:00","end":"11:00"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("touching create: status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body.String())
	}

	recorder = doRequest(api, http.MethodDelete, "/api/bookings/booking-1", bob, "")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel: status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	recorder = doRequest(api, http.MethodDelete, "/api/bookings/booking-1", alice, "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("owner cancel: status = %d, want %d: %s", recorder.Code, http.StatusNoContent, recorder.Body.String())
	}

	recorder = doRequest(api, http.MethodDelete, "/api/bookings/booking-1", alice, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("second cancel: status = %d, want %d", recorder.Code, http.StatusNotFound)
	}

	recorder = doRequest(api, http.MethodGet, "/api/bookings?room_id=room-a&date=2024-06-01", alice, "")
	if err := json.Unmarshal(recorder.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode listing after cancel: %v", err)
	}
	if len(listed.Bookings) != 1 || listed.Bookings[0].OwnerID != "bob" {
		t.Fatalf("listing after cancel = %+v, want only bob's booking", listed.Bookings)
	}
}

func TestAPI_BookingValidation(t *testing.T) {
	t.Parallel()

	api := newAPI(t)
	alice := bearerToken(t, "alice", "alice@example.com", booking.RoleUser)

	recorder := doRequest(api, http.MethodPost, "/api/bookings", alice, `{"room_id":`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	if body := decodeError(t, recorder); body.ErrorCode != "bad_request" {
		t.Fatalf("error_code = %q, want bad_request", body.ErrorCode)
	}

	recorder = doRequest(api, http.MethodPost, "/api/bookings", alice,
		`{"room_id":"room-a","date":"June 1st","start":"morning","end":"noon"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unparseable fields: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	body := decodeError(t, recorder)
	for _, field := range []string{"date", "start", "end"} {
		if _, ok := body.Errors[field]; !ok {
			t.Fatalf("errors missing %q: %+v", field, body.Errors)
		}
	}

	recorder = doRequest(api, http.MethodPost, "/api/bookings", alice,
		`{"room_id":"room-a","date":"2024-06-01","start":"11:00","end":"10:00"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("inverted interval: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	body = decodeError(t, recorder)
	if body.ErrorCode != "invalid_interval" {
		t.Fatalf("error_code = %q, want invalid_interval", body.ErrorCode)
	}
	if _, ok := body.Errors["interval"]; !ok {
		t.Fatalf("errors missing interval: %+v", body.Errors)
	}

	recorder = doRequest(api, http.MethodPost, "/api/bookings", alice,
		`{"room_id":"room-z","date":"2024-06-01","start":"09:00","end":"10:00"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unknown room: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	if body = decodeError(t, recorder); body.ErrorCode != "unknown_room" {
		t.Fatalf("error_code = %q, want unknown_room", body.ErrorCode)
	}

	recorder = doRequest(api, http.MethodGet, "/api/bookings?date=2024-06-01", alice, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("listing without room_id: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestAPI_AvailabilityEndpoint(t *testing.T) {
	t.Parallel()

	api := newAPI(t)
	alice := bearerToken(t, "alice", "alice@example.com", booking.RoleUser)

	recorder := doRequest(api, http.MethodGet, "/api/availability?date=2024-06-01", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusOK, recorder.Body.String())
	}
	var grid gridDTO
	if err := json.Unmarshal(recorder.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if len(grid.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(grid.Rooms))
	}
	if len(grid.Rooms[0].Slots) != 18 {
		t.Fatalf("slots = %d, want 18 half-hour slots from 08:00 to 17:00", len(grid.Rooms[0].Slots))
	}
	for _, slot := range grid.Rooms[0].Slots {
		if slot.Booked {
			t.Fatalf("slot %s booked on an empty store", slot.Start)
		}
	}

	if recorder = doRequest(api, http.MethodPost, "/api/bookings", alice,
		`{"room_id":"room-a","date":"2024-06-01","start":"09:00","end":"10:00"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("seed booking: status = %d: %s", recorder.Code, recorder.Body.String())
	}

	// The commit invalidated the cached listing, so the grid must show the
	// new booking immediately.
	recorder = doRequest(api, http.MethodGet, "/api/availability?date=2024-06-01", "", "")
	if err := json.Unmarshal(recorder.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode grid after booking: %v", err)
	}
	slots := slotsByStart(t, grid, "room-a")
	if !slots["09:00"].Booked || slots["09:00"].OwnerID != "alice" {
		t.Fatalf("09:00 slot = %+v, want booked by alice", slots["09:00"])
	}
	if !slots["09:30"].Booked {
		t.Fatalf("09:30 slot = %+v, want booked", slots["09:30"])
	}
	if slots["08:30"].Booked || slots["10:00"].Booked {
		t.Fatal("slots outside the booking must stay free")
	}
	for _, slot := range slotsByStart(t, grid, "room-b") {
		if slot.Booked {
			t.Fatal("room-b must be unaffected by a room-a booking")
		}
	}

	recorder = doRequest(api, http.MethodGet, "/api/availability", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("default date: status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode default grid: %v", err)
	}
	if grid.Date != "2024-06-01" {
		t.Fatalf("default date = %q, want 2024-06-01", grid.Date)
	}

	recorder = doRequest(api, http.MethodGet, "/api/availability?date=yesterday", "", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func slotsByStart(t *testing.T, grid gridDTO, roomID string) map[string]slotDTO {
	t.Helper()
	for _, row := range grid.Rooms {
		if row.RoomID != roomID {
			continue
		}
		out := make(map[string]slotDTO, len(row.Slots))
		for _, slot := range row.Slots {
			out[slot.Start] = slot
		}
		return out
	}
	t.Fatalf("grid has no row for %s", roomID)
	return nil
}

func TestAPI_ExportRequiresAdmin(t *testing.T) {
	t.Parallel()

	api := newAPI(t)
	alice := bearerToken(t, "alice", "alice@example.com", booking.RoleUser)
	admin := bearerToken(t, "root", "root@example.com", booking.RoleAdmin)

	if recorder := doRequest(api, http.MethodPost, "/api/bookings", alice,
		`{"room_id":"room-a","date":"2024-06-01","start":"09:00","end":"10:00"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("seed booking: status = %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder := doRequest(api, http.MethodGet, "/api/bookings/export", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous export: status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	recorder = doRequest(api, http.MethodGet, "/api/bookings/export", alice, "")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("user export: status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	recorder = doRequest(api, http.MethodGet, "/api/bookings/export", admin, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin export: status = %d, want %d: %s", recorder.Code, http.StatusOK, recorder.Body.String())
	}
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("Content-Type = %q, want text/csv", got)
	}
	if got := recorder.Header().Get("Content-Disposition"); !strings.Contains(got, "bookings.csv") {
		t.Fatalf("Content-Disposition = %q, want bookings.csv attachment", got)
	}

	records, err := csv.NewReader(strings.NewReader(recorder.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("CSV rows = %d, want header plus one booking", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "room_id" {
		t.Fatalf("CSV header = %v", records[0])
	}
	if records[1][1] != "room-a" || records[1][5] != "alice" {
		t.Fatalf("CSV record = %v, want room-a booking owned by alice", records[1])
	}
}

func TestAPI_RoutingFallbacks(t *testing.T) {
	t.Parallel()

	api := newAPI(t)

	recorder := doRequest(api, http.MethodGet, "/healthz", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("healthz: status = %d, want %d", recorder.Code, http.StatusOK)
	}

	recorder = doRequest(api, http.MethodGet, "/api/unknown", "", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unknown path: status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
	if body := decodeError(t, recorder); body.ErrorCode != "not_found" {
		t.Fatalf("error_code = %q, want not_found", body.ErrorCode)
	}

	recorder = doRequest(api, http.MethodPut, "/api/bookings", "", "")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unsupported method: status = %d, want %d", recorder.Code, http.StatusMethodNotAllowed)
	}
	if body := decodeError(t, recorder); body.ErrorCode != "method_not_allowed" {
		t.Fatalf("error_code = %q, want method_not_allowed", body.ErrorCode)
	}
}
