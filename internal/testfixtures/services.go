package testfixtures

import (
	"log/slog"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/availability"
	"github.com/Mikkung/MeetingRoom-Proj/internal/catalog"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/memory"
)

// EngineFactory assists tests with constructing admission and availability
// services using deterministic identifiers and clocks.
type EngineFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// EngineFactoryOption configures an EngineFactory instance.
type EngineFactoryOption func(*EngineFactory)

// NewEngineFactory constructs an EngineFactory with defaults.
func NewEngineFactory(opts ...EngineFactoryOption) *EngineFactory {
	factory := &EngineFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("booking"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("booking")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) EngineFactoryOption {
	return func(factory *EngineFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) EngineFactoryOption {
	return func(factory *EngineFactory) {
		factory.IDGenerator = generator
	}
}

// NewMemoryStore returns an in-memory reservation store whose ids and
// timestamps come from the factory's deterministic sequence and clock.
func (f *EngineFactory) NewMemoryStore() *memory.Store {
	return memory.NewStore(f.IDGenerator.NextFunc(), f.Clock.NowFunc())
}

// EngineDeps captures dependencies for constructing an admission engine.
type EngineDeps struct {
	Store    engine.ReservationStore
	Rooms    engine.RoomDirectory
	Cache    engine.AvailabilityInvalidator
	Notifier engine.Notifier
	Logger   *slog.Logger
}

// NewEngine builds an admission service using the supplied dependencies
// combined with the factory defaults: a fresh in-memory store and the
// built-in room catalog.
func (f *EngineFactory) NewEngine(deps EngineDeps) *engine.Service {
	reservations := deps.Store
	if reservations == nil {
		reservations = f.NewMemoryStore()
	}
	rooms := deps.Rooms
	if rooms == nil {
		rooms = catalog.Default()
	}
	return engine.NewServiceWithLogger(reservations, rooms, deps.Cache, deps.Notifier, deps.Logger)
}

// AvailabilityDeps captures dependencies for constructing an availability
// service.
type AvailabilityDeps struct {
	Store  availability.BookingLister
	Rooms  availability.RoomDirectory
	Cache  *availability.Cache
	Window availability.Window
	Logger *slog.Logger
}

// NewAvailability builds an availability service using the supplied
// dependencies combined with the factory defaults.
func (f *EngineFactory) NewAvailability(deps AvailabilityDeps) *availability.Service {
	reservations := deps.Store
	if reservations == nil {
		reservations = f.NewMemoryStore()
	}
	rooms := deps.Rooms
	if rooms == nil {
		rooms = catalog.Default()
	}
	return availability.NewServiceWithLogger(reservations, rooms, deps.Cache, deps.Window, deps.Logger)
}

// Stack bundles an admission engine and availability service wired over one
// shared in-memory store, the way the composition root assembles them.
type Stack struct {
	Clock        *Clock
	IDGenerator  *IDGenerator
	Store        *memory.Store
	Catalog      *catalog.Catalog
	Cache        *availability.Cache
	Availability *availability.Service
	Engine       *engine.Service
}

// NewStack wires a complete deterministic service stack: commits go through
// the engine into the shared store, reads go through the availability cache,
// and every successful commit or cancel drops the touched cache entry.
func (f *EngineFactory) NewStack() *Stack {
	rooms := catalog.Default()
	reservations := f.NewMemoryStore()
	cache := availability.NewCache(0, 0, f.Clock.NowFunc())
	reads := availability.NewService(reservations, rooms, cache, availability.DefaultWindow())
	admissions := engine.NewService(reservations, rooms, reads, nil)
	return &Stack{
		Clock:        f.Clock,
		IDGenerator:  f.IDGenerator,
		Store:        reservations,
		Catalog:      rooms,
		Cache:        cache,
		Availability: reads,
		Engine:       admissions,
	}
}
