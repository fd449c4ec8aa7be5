package availability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/logging"
)

// BookingLister captures the store reads behind the projector.
type BookingLister interface {
	ListByRoomAndDate(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error)
	ListAll(ctx context.Context) ([]booking.Booking, error)
}

// RoomDirectory provides the rooms to project.
type RoomDirectory interface {
	RoomIDs() []string
}

// Service serves availability reads: per-room booking lists and the full
// grid, read through the TTL cache.
type Service struct {
	store  BookingLister
	rooms  RoomDirectory
	cache  *Cache
	window Window
	logger *slog.Logger
}

// NewService wires dependencies for availability reads. A nil cache disables
// caching and every read goes to the store.
func NewService(store BookingLister, rooms RoomDirectory, cache *Cache, window Window) *Service {
	return NewServiceWithLogger(store, rooms, cache, window, nil)
}

// NewServiceWithLogger constructs a Service with a specified logger.
func NewServiceWithLogger(store BookingLister, rooms RoomDirectory, cache *Cache, window Window, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		rooms:  rooms,
		cache:  cache,
		window: window.normalized(),
		logger: logger,
	}
}

// RoomBookings returns the confirmed bookings for one room and date, served
// from the cache when a fresh entry exists.
func (s *Service) RoomBookings(ctx context.Context, roomID string, date booking.Date) ([]booking.Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("availability Service is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("booking lister not configured")
	}

	if cached, ok := s.cache.Get(roomID, date); ok {
		return cached, nil
	}

	listed, err := s.store.ListByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	s.cache.Store(roomID, date, listed)
	return listed, nil
}

// Snapshot returns the confirmed bookings for every catalog room on the
// date, reading each room through the cache.
func (s *Service) Snapshot(ctx context.Context, date booking.Date) ([]booking.Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("availability Service is nil")
	}
	if s.rooms == nil {
		return nil, fmt.Errorf("room directory not configured")
	}

	var all []booking.Booking
	for _, roomID := range s.rooms.RoomIDs() {
		listed, err := s.RoomBookings(ctx, roomID, date)
		if err != nil {
			return nil, err
		}
		all = append(all, listed...)
	}
	return all, nil
}

// Grid projects the availability matrix for the date across all catalog
// rooms.
func (s *Service) Grid(ctx context.Context, date booking.Date) (grid Grid, err error) {
	if s == nil {
		err = fmt.Errorf("availability Service is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room directory not configured")
		return
	}

	defer func() {
		if err != nil {
			s.operationLogger(ctx, "Grid").ErrorContext(ctx, "grid projection failed",
				"date", date.String(),
				"error", err,
			)
		}
	}()

	bookings, err := s.Snapshot(ctx, date)
	if err != nil {
		return Grid{}, err
	}
	return Project(date, s.rooms.RoomIDs(), bookings, s.window), nil
}

// AllBookings returns every confirmed booking straight from the store. The
// export path wants current data, so the cache is bypassed.
func (s *Service) AllBookings(ctx context.Context) ([]booking.Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("availability Service is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("booking lister not configured")
	}
	return s.store.ListAll(ctx)
}

// Invalidate drops the cached entry for the room and date. The admission
// engine calls it after every successful commit and cancel.
func (s *Service) Invalidate(roomID string, date booking.Date) {
	if s == nil {
		return
	}
	s.cache.Invalidate(roomID, date)
}

func (s *Service) operationLogger(ctx context.Context, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("service", "Availability", "operation", operation)
}
