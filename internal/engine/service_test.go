package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/memory"
)

type reservationStoreStub struct {
	committed booking.Booking
	commitErr error
	cancelled booking.Booking
	cancelErr error

	commits   int
	lastInput booking.Input
}

func (s *reservationStoreStub) TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error) {
	s.commits++
	s.lastInput = input
	if s.commitErr != nil {
		return booking.Booking{}, s.commitErr
	}
	if s.committed.ID != "" {
		return s.committed, nil
	}
	return booking.Booking{
		ID:         "booking-1",
		RoomID:     input.RoomID,
		Date:       input.Date,
		Interval:   input.Interval,
		OwnerID:    input.OwnerID,
		OwnerEmail: input.OwnerEmail,
	}, nil
}

func (s *reservationStoreStub) Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error) {
	if s.cancelErr != nil {
		return booking.Booking{}, s.cancelErr
	}
	return s.cancelled, nil
}

type roomDirectoryStub struct {
	rooms map[string]bool
}

func (r *roomDirectoryStub) Contains(roomID string) bool {
	return r.rooms[roomID]
}

type invalidatorStub struct {
	mu    sync.Mutex
	calls []string
}

func (i *invalidatorStub) Invalidate(roomID string, date booking.Date) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, roomID+"|"+date.String())
}

func (i *invalidatorStub) snapshot() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.calls))
	copy(out, i.calls)
	return out
}

type notifierStub struct {
	confirmed chan booking.Booking
	cancelled chan booking.Booking
}

func newNotifierStub() *notifierStub {
	return &notifierStub{
		confirmed: make(chan booking.Booking, 1),
		cancelled: make(chan booking.Booking, 1),
	}
}

func (n *notifierStub) BookingConfirmed(ctx context.Context, confirmed booking.Booking) {
	n.confirmed <- confirmed
}

func (n *notifierStub) BookingCancelled(ctx context.Context, cancelled booking.Booking) {
	n.cancelled <- cancelled
}

func awaitNotification(t *testing.T, ch chan booking.Booking) booking.Booking {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notification")
		return booking.Booking{}
	}
}

func mustDate(t *testing.T, value string) booking.Date {
	t.Helper()
	date, err := booking.ParseDate(value)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", value, err)
	}
	return date
}

func mustInterval(t *testing.T, start, end string) booking.Interval {
	t.Helper()
	s, err := booking.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", start, err)
	}
	e, err := booking.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", end, err)
	}
	return booking.Interval{Start: s, End: e}
}

func testRequest(t *testing.T) BookingRequest {
	t.Helper()
	return BookingRequest{
		RoomID:   "room-a",
		Date:     mustDate(t, "2024-06-01"),
		Interval: mustInterval(t, "09:00", "10:00"),
	}
}

func singleRoom(id string) *roomDirectoryStub {
	return &roomDirectoryStub{rooms: map[string]bool{id: true}}
}

func TestService_RequestBooking_RequiresIdentity(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{}
	svc := NewService(repo, singleRoom("room-a"), nil, nil)

	_, err := svc.RequestBooking(context.Background(), booking.Identity{}, testRequest(t))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if repo.commits != 0 {
		t.Fatalf("expected store to be untouched, saw %d commits", repo.commits)
	}
}

func TestService_RequestBooking_ValidatesInterval(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{}
	svc := NewService(repo, singleRoom("room-a"), nil, nil)
	requester := booking.Identity{UserID: "alice", Role: booking.RoleUser}

	_, err := svc.RequestBooking(context.Background(), requester, BookingRequest{
		RoomID:   "room-a",
		Interval: booking.Interval{Start: 600, End: 540},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["interval"]; !ok {
		t.Fatalf("expected interval validation error, got %v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["date"]; !ok {
		t.Fatalf("expected date validation error, got %v", vErr.FieldErrors)
	}
	if repo.commits != 0 {
		t.Fatalf("expected store to be untouched, saw %d commits", repo.commits)
	}
}

func TestService_RequestBooking_RejectsUnknownRoom(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{}
	svc := NewService(repo, singleRoom("room-a"), nil, nil)
	requester := booking.Identity{UserID: "alice", Role: booking.RoleUser}

	request := testRequest(t)
	request.RoomID = "room-z"

	_, err := svc.RequestBooking(context.Background(), requester, request)
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}
	if repo.commits != 0 {
		t.Fatalf("expected store to be untouched, saw %d commits", repo.commits)
	}
}

func TestService_RequestBooking_AdmitsAndNotifies(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{}
	cache := &invalidatorStub{}
	notifier := newNotifierStub()
	svc := NewService(repo, singleRoom("room-a"), cache, notifier)
	requester := booking.Identity{UserID: "alice", Email: "alice@example.com", Role: booking.RoleUser}

	confirmed, err := svc.RequestBooking(context.Background(), requester, testRequest(t))
	if err != nil {
		t.Fatalf("RequestBooking returned error: %v", err)
	}
	if confirmed.ID != "booking-1" {
		t.Fatalf("expected committed booking, got %+v", confirmed)
	}

	if repo.lastInput.OwnerID != "alice" || repo.lastInput.OwnerEmail != "alice@example.com" {
		t.Fatalf("expected owner fields from identity, got %+v", repo.lastInput)
	}

	calls := cache.snapshot()
	if len(calls) != 1 || calls[0] != "room-a|2024-06-01" {
		t.Fatalf("expected one invalidation for room-a|2024-06-01, got %v", calls)
	}

	notified := awaitNotification(t, notifier.confirmed)
	if notified.ID != confirmed.ID {
		t.Fatalf("expected notification for %s, got %+v", confirmed.ID, notified)
	}
}

func TestService_RequestBooking_SurfacesConflictOwner(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{commitErr: &store.ConflictError{
		BookingID: "booking-0",
		OwnerID:   "alice",
		Interval:  mustInterval(t, "09:00", "10:00"),
	}}
	cache := &invalidatorStub{}
	notifier := newNotifierStub()
	svc := NewService(repo, singleRoom("room-a"), cache, notifier)
	requester := booking.Identity{UserID: "bob", Role: booking.RoleUser}

	_, err := svc.RequestBooking(context.Background(), requester, testRequest(t))

	conflict, ok := AsSlotConflict(err)
	if !ok {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if conflict.OwnerID != "alice" {
		t.Fatalf("expected conflict to name alice, got %q", conflict.OwnerID)
	}
	if conflict.Interval.String() != "09:00-10:00" {
		t.Fatalf("expected conflicting interval 09:00-10:00, got %s", conflict.Interval)
	}

	if len(cache.snapshot()) != 0 {
		t.Fatalf("expected no invalidation on conflict")
	}
	if len(notifier.confirmed) != 0 {
		t.Fatalf("expected no notification on conflict")
	}
}

func TestService_RequestBooking_StoreUnavailableNeverAdmits(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{commitErr: store.ErrUnavailable}
	svc := NewService(repo, singleRoom("room-a"), nil, nil)
	requester := booking.Identity{UserID: "alice", Role: booking.RoleUser}

	confirmed, err := svc.RequestBooking(context.Background(), requester, testRequest(t))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if confirmed.ID != "" {
		t.Fatalf("expected no booking when the store is unavailable, got %+v", confirmed)
	}
}

func TestService_RequestBooking_BusyIsRetryable(t *testing.T) {
	t.Parallel()

	repo := &reservationStoreStub{commitErr: store.ErrBusy}
	svc := NewService(repo, singleRoom("room-a"), nil, nil)
	requester := booking.Identity{UserID: "alice", Role: booking.RoleUser}

	_, err := svc.RequestBooking(context.Background(), requester, testRequest(t))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if repo.commits != 1 {
		t.Fatalf("expected a single commit attempt, got %d", repo.commits)
	}
}

func TestService_CancelBooking_RequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := NewService(&reservationStoreStub{}, singleRoom("room-a"), nil, nil)

	err := svc.CancelBooking(context.Background(), booking.Identity{}, "booking-1")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestService_CancelBooking_MapsStoreErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		storeErr error
		want     error
	}{
		"not found":   {storeErr: store.ErrNotFound, want: ErrNotFound},
		"forbidden":   {storeErr: store.ErrForbidden, want: ErrForbidden},
		"busy":        {storeErr: store.ErrBusy, want: ErrBusy},
		"unavailable": {storeErr: store.ErrUnavailable, want: ErrStoreUnavailable},
	}

	requester := booking.Identity{UserID: "alice", Role: booking.RoleUser}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&reservationStoreStub{cancelErr: tc.storeErr}, nil, nil, nil)
			err := svc.CancelBooking(context.Background(), requester, "booking-1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_CancelBooking_InvalidatesAndNotifies(t *testing.T) {
	t.Parallel()

	removed := booking.Booking{
		ID:       "booking-1",
		RoomID:   "room-a",
		Date:     mustDate(t, "2024-06-01"),
		Interval: mustInterval(t, "09:00", "10:00"),
		OwnerID:  "alice",
	}
	repo := &reservationStoreStub{cancelled: removed}
	cache := &invalidatorStub{}
	notifier := newNotifierStub()
	svc := NewService(repo, nil, cache, notifier)

	err := svc.CancelBooking(context.Background(), booking.Identity{UserID: "alice", Role: booking.RoleUser}, "booking-1")
	if err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}

	calls := cache.snapshot()
	if len(calls) != 1 || calls[0] != "room-a|2024-06-01" {
		t.Fatalf("expected one invalidation for room-a|2024-06-01, got %v", calls)
	}

	notified := awaitNotification(t, notifier.cancelled)
	if notified.ID != removed.ID {
		t.Fatalf("expected cancellation notice for %s, got %+v", removed.ID, notified)
	}
}

func TestService_Scenario_ConflictNamesExistingOwner(t *testing.T) {
	t.Parallel()

	memStore := memory.NewStore(nil, nil)
	svc := NewService(memStore, singleRoom("room-a"), nil, nil)

	alice := booking.Identity{UserID: "alice", Role: booking.RoleUser}
	bob := booking.Identity{UserID: "bob", Role: booking.RoleUser}
	date := mustDate(t, "2024-06-01")

	if _, err := svc.RequestBooking(context.Background(), alice, BookingRequest{
		RoomID: "room-a", Date: date, Interval: mustInterval(t, "09:00", "10:00"),
	}); err != nil {
		t.Fatalf("alice's booking failed: %v", err)
	}

	_, err := svc.RequestBooking(context.Background(), bob, BookingRequest{
		RoomID: "room-a", Date: date, Interval: mustInterval(t, "09:30", "10:30"),
	})
	conflict, ok := AsSlotConflict(err)
	if !ok {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if conflict.OwnerID != "alice" || conflict.Interval.String() != "09:00-10:00" {
		t.Fatalf("expected conflict naming alice for 09:00-10:00, got %+v", conflict)
	}

	if _, err := svc.RequestBooking(context.Background(), bob, BookingRequest{
		RoomID: "room-a", Date: date, Interval: mustInterval(t, "10:00", "11:00"),
	}); err != nil {
		t.Fatalf("bob's adjacent booking failed: %v", err)
	}

	listed, err := memStore.ListByRoomAndDate(context.Background(), "room-a", date)
	if err != nil {
		t.Fatalf("ListByRoomAndDate returned error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected two confirmed bookings, got %d", len(listed))
	}
	if listed[0].OwnerID != "alice" || listed[1].OwnerID != "bob" {
		t.Fatalf("expected alice then bob, got %+v", listed)
	}
}
