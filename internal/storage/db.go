package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
	now  func() time.Time
	log  zerolog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the clock used for "today" and the current month.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithLogger sets the logger used for storage events.
func WithLogger(log zerolog.Logger) Option {
	return func(db *DB) { db.log = log.With().Str("component", "storage").Logger() }
}

// NewDB opens a database connection and runs migrations.
// Every failure is wrapped with ErrUnavailable.
func NewDB(path string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	// One connection for the process lifetime; this also keeps ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, unavailable(path, err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, unavailable(path, err)
	}

	db := &DB{conn: conn, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.Initialize(); err != nil {
		conn.Close()
		return nil, unavailable(path, err)
	}

	db.log.Debug().Str("path", path).Msg("database ready")
	return db, nil
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
}

// Now returns the current time according to the store clock.
func (db *DB) Now() time.Time {
	return db.now()
}

// Today returns the current date in ISO form.
func (db *DB) Today() string {
	return db.now().Format(ISODate)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
