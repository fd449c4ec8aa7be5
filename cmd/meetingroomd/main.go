// Command meetingroomd serves the meeting room booking API. It wires the
// configured store driver, the admission engine, the availability projector,
// and the HTTP transport into one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Mikkung/MeetingRoom-Proj/internal/availability"
	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
	"github.com/Mikkung/MeetingRoom-Proj/internal/catalog"
	"github.com/Mikkung/MeetingRoom-Proj/internal/config"
	"github.com/Mikkung/MeetingRoom-Proj/internal/engine"
	httptransport "github.com/Mikkung/MeetingRoom-Proj/internal/http"
	"github.com/Mikkung/MeetingRoom-Proj/internal/identity"
	"github.com/Mikkung/MeetingRoom-Proj/internal/logging"
	"github.com/Mikkung/MeetingRoom-Proj/internal/notify"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/memory"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/postgres"
	"github.com/Mikkung/MeetingRoom-Proj/internal/store/sqlite"
)

func main() {
	// A .env file is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("meetingroomd", pflag.ExitOnError)
	httpAddr := flags.String("http-addr", "", "listen address, overrides MEETINGROOM_HTTP_ADDR")
	storeDriver := flags.String("store", "", "store driver: memory, sqlite, or postgres, overrides MEETINGROOM_STORE_DRIVER")
	roomsFile := flags.String("rooms-file", "", "rooms YAML file, overrides MEETINGROOM_ROOMS_FILE")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, or error, overrides MEETINGROOM_LOG_LEVEL")
	_ = flags.Parse(os.Args[1:])

	logger := logging.New(os.Stdout, "info")

	overrides := map[string]string{}
	if *httpAddr != "" {
		overrides["MEETINGROOM_HTTP_ADDR"] = *httpAddr
	}
	if *storeDriver != "" {
		overrides["MEETINGROOM_STORE_DRIVER"] = *storeDriver
	}
	if *roomsFile != "" {
		overrides["MEETINGROOM_ROOMS_FILE"] = *roomsFile
	}
	if *logLevel != "" {
		overrides["MEETINGROOM_LOG_LEVEL"] = *logLevel
	}

	cfg, err := config.Load(configLookup(overrides))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rooms := catalog.Default()
	if cfg.RoomsFile != "" {
		rooms, err = catalog.LoadFile(cfg.RoomsFile)
		if err != nil {
			logger.Error("failed to load rooms file", "error", err, "path", cfg.RoomsFile)
			os.Exit(1)
		}
	}
	logger.Info("room catalog loaded", "rooms", rooms.Len())

	reservations, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open reservation store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer closeStore()

	verifier, err := identity.NewVerifier(cfg.IdentitySecret, nil)
	if err != nil {
		logger.Error("failed to build identity verifier", "error", err)
		os.Exit(1)
	}

	notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Error("failed to build telegram notifier", "error", err)
		os.Exit(1)
	}

	cache := availability.NewCache(cfg.CacheTTL, 0, nil)
	window := availability.Window{Start: cfg.DayStart, End: cfg.DayEnd, SlotMinutes: cfg.SlotMinutes}
	reads := availability.NewServiceWithLogger(reservations, rooms, cache, window, logger)

	writes := writeDeadlineStore{ReservationStore: reservations, timeout: cfg.LockTimeout}
	admissions := engine.NewServiceWithLogger(writes, rooms, reads, notifier, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:          httptransport.NewRoomHandler(rooms, logger),
		Availability:   httptransport.NewAvailabilityHandler(reads, nil, logger),
		Bookings:       httptransport.NewBookingHandler(admissions, reads, rooms, logger),
		Export:         httptransport.NewExportHandler(reads, logger),
		Verifier:       verifier,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "driver", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// configLookup layers the parsed flag overrides over the process environment
// so flags win without mutating the environment itself.
func configLookup(overrides map[string]string) func(string) string {
	return func(key string) string {
		if value, ok := overrides[key]; ok {
			return value
		}
		return os.Getenv(key)
	}
}

// openStore builds the configured reservation store driver. The returned
// close function releases the backing connection pool; for the in-memory
// driver it is a no-op.
func openStore(cfg config.Config, logger *slog.Logger) (store.ReservationStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using the in-memory store, bookings are lost on restart")
		return memory.NewStore(nil, nil), func() {}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewStore(db, nil, nil), func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("failed to close sqlite store", "error", cerr)
			}
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db, nil, nil), func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("failed to close postgres store", "error", cerr)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// writeDeadlineStore bounds how long a write may wait on the per-room
// serialization. The drivers surface an expired deadline as ErrBusy, which
// the API maps to a retryable 503.
type writeDeadlineStore struct {
	store.ReservationStore
	timeout time.Duration
}

func (s writeDeadlineStore) TryCommit(ctx context.Context, input booking.Input) (booking.Booking, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.ReservationStore.TryCommit(ctx, input)
}

func (s writeDeadlineStore) Cancel(ctx context.Context, bookingID string, requester booking.Identity) (booking.Booking, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.ReservationStore.Cancel(ctx, bookingID, requester)
}

func (s writeDeadlineStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
