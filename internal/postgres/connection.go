package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"stealthcompany.com/devevent/internal/connection"
)

// Schemes are the URI schemes served by Dialer
var Schemes = []string{"postgres", "postgresql"}

// Conn wraps a pgx connection pool
type Conn struct {
	pool *pgxpool.Pool
}

// Driver returns "postgres"
func (c *Conn) Driver() string {
	return "postgres"
}

// Ping acquires a pooled connection and pings the server
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes every connection in the pool
func (c *Conn) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

// Pool returns the underlying pool
func (c *Conn) Pool() *pgxpool.Pool {
	return c.pool
}

// Dialer creates a pgx connection pool
type Dialer struct {
	MinConns int32
	MaxConns int32
}

// Dial creates the pool and, unless opts.BufferCommands is set, pings the
// server so an unreachable database fails here rather than on first use
func (d Dialer) Dial(ctx context.Context, uri string, opts connection.Options) (connection.Conn, error) {
	poolCfg, err := d.poolConfig(uri, opts)
	if err != nil {
		return nil, &connection.ConfigurationError{Key: connection.URIKey, Err: err}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if opts.BufferCommands {
		return &Conn{pool: pool}, nil
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Conn{pool: pool}, nil
}

func (d Dialer) poolConfig(uri string, opts connection.Options) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if d.MaxConns > 0 {
		poolCfg.MaxConns = d.MaxConns
	}
	if d.MinConns > 0 {
		poolCfg.MinConns = d.MinConns
	}
	if opts.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = opts.Timeout
	}

	return poolCfg, nil
}
