// Package sqlite persists bookings in an embedded SQLite database through
// the modernc.org/sqlite driver. Schema changes ship as goose migrations
// embedded in the binary and are applied on Open, so a deployment never
// needs a separate migration step.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DSN builds a connection string for the database file at path. WAL
// journaling lets readers proceed while a commit is in flight, and the busy
// timeout makes cross-room writers queue briefly instead of failing.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

// DB owns the SQLite connection pool shared by the stores built on top of it.
type DB struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, verifies the connection, and
// applies any pending embedded migrations.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", mapSQLiteError(err))
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// withTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (d *DB) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapSQLiteError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapSQLiteError(err))
	}
	return nil
}

// mapSQLiteError translates driver failures into the store sentinels so
// callers never have to inspect SQLite messages themselves. The original
// error stays wrapped for the logs.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrBusy, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", store.ErrBusy, err)
	case strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "disk I/O error"),
		strings.Contains(msg, "readonly database"),
		strings.Contains(msg, "database disk image is malformed"),
		strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
