package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
	"stealthcompany.com/devevent/internal/connection"
)

const driverName = "sqlite"

// Schemes are the URI schemes served by Dialer
var Schemes = []string{"sqlite", "file"}

// Conn wraps a database/sql handle backed by the pure-Go SQLite driver
type Conn struct {
	db *sql.DB
}

// Driver returns "sqlite"
func (c *Conn) Driver() string {
	return "sqlite"
}

// Ping checks the database file can be opened
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database
func (c *Conn) Close(ctx context.Context) error {
	return c.db.Close()
}

// DB returns the underlying handle
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Dialer opens SQLite databases. sqlite://path and sqlite://:memory: are
// mapped to driver DSNs; file: URIs are passed through unchanged.
type Dialer struct {
	MaxOpenConns int
}

// Dial opens the database and, unless opts.BufferCommands is set, pings it
func (d Dialer) Dial(ctx context.Context, uri string, opts connection.Options) (connection.Conn, error) {
	dsn := DSN(uri)
	if dsn == "" {
		return nil, &connection.ConfigurationError{
			Key: connection.URIKey,
			Err: errors.New("sqlite URI has no database path"),
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	switch {
	case d.MaxOpenConns > 0:
		db.SetMaxOpenConns(d.MaxOpenConns)
	case isMemory(dsn):
		// every new connection to :memory: is a fresh, empty database
		db.SetMaxOpenConns(1)
	}

	if opts.BufferCommands {
		return &Conn{db: db}, nil
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Conn{db: db}, nil
}

// DSN converts a connection URI into a DSN for the sqlite driver
func DSN(uri string) string {
	if strings.EqualFold(connection.Scheme(uri), "sqlite") {
		return strings.TrimPrefix(uri[len("sqlite:"):], "//")
	}
	return uri
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
