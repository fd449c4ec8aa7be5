package testfixtures

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/store/sqlite"
)

// SQLiteHarness provides a reservation store backed by a temporary SQLite
// database for integration-style driver tests. Ids and timestamps come from
// the embedded deterministic fixtures, so stored rows are predictable.
type SQLiteHarness struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	DB          *sqlite.DB
	Store       *sqlite.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary database file
// that is migrated automatically. Callers may optionally invoke Close, but
// the helper also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	db, err := sqlite.Open(sqlite.DSN(filepath.Join(dir, "meetingroom.db")))
	if err != nil {
		tb.Fatalf("failed to open sqlite database: %v", err)
	}

	clock := NewClock(time.Time{})
	generator := NewIDGenerator("booking")
	harness := &SQLiteHarness{
		Clock:       clock,
		IDGenerator: generator,
		DB:          db,
		Store:       sqlite.NewStore(db, generator.NextFunc(), clock.NowFunc()),
		cleanup: func() {
			_ = db.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
