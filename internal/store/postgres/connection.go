// Package postgres persists bookings in PostgreSQL through the lib/pq
// driver. Unlike the embedded drivers, per-room serialization comes from a
// transaction scoped advisory lock inside the database itself, so several
// service processes can share one cluster without double booking. Schema
// changes ship as goose migrations embedded in the binary and are applied on
// Open.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Mikkung/MeetingRoom-Proj/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB owns the PostgreSQL connection pool shared by the stores built on top
// of it.
type DB struct {
	db *sql.DB
}

// Open connects to the PostgreSQL cluster at dsn, verifies the connection,
// and applies any pending embedded migrations.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", mapPostgresError(err))
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
	if err := goose.SetDialect("postgres"); err != nil {
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
		return mapPostgresError(err)
	}
	return nil
}

// withTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (d *DB) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapPostgresError(err))
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
		return fmt.Errorf("commit transaction: %w", mapPostgresError(err))
	}
	return nil
}

// mapPostgresError translates driver failures into the store sentinels so
// callers never have to inspect SQLSTATE codes themselves. The original
// error stays wrapped for the logs.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrBusy, err)
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch {
		// lock_not_available, serialization_failure, deadlock_detected.
		case pgErr.Code == "55P03", pgErr.Code == "40001", pgErr.Code == "40P01":
			return fmt.Errorf("%w: %v", store.ErrBusy, err)
		// connection exceptions, insufficient resources, server shutdown.
		case pgErr.Code.Class() == "08", pgErr.Code.Class() == "53", pgErr.Code.Class() == "57":
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
