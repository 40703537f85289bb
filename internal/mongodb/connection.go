package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"stealthcompany.com/devevent/internal/connection"
)

const defaultDatabase = "devevent"

// Schemes are the URI schemes served by Dialer
var Schemes = []string{"mongodb", "mongodb+srv"}

// Conn wraps a connected MongoDB client and the database named in its URI
type Conn struct {
	client   *mongo.Client
	database string
}

// Driver returns "mongodb"
func (c *Conn) Driver() string {
	return "mongodb"
}

// Ping checks the primary is reachable
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close disconnects the client
func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Client returns the underlying driver client
func (c *Conn) Client() *mongo.Client {
	return c.client
}

// Database returns the database named in the connection URI
func (c *Conn) Database() *mongo.Database {
	return c.client.Database(c.database)
}

// DatabaseName returns the name of the default database
func (c *Conn) DatabaseName() string {
	return c.database
}

// Dialer connects to MongoDB with the official driver
type Dialer struct {
	AppName     string
	MaxPoolSize uint64
}

// Dial connects and, unless opts.BufferCommands is set, pings the primary
// so the handle is only returned once operations can run on it
func (d Dialer) Dial(ctx context.Context, uri string, opts connection.Options) (connection.Conn, error) {
	clientOpts := d.clientOptions(uri, opts)
	if err := clientOpts.Validate(); err != nil {
		return nil, &connection.ConfigurationError{
			Key: connection.URIKey,
			Err: fmt.Errorf("invalid mongodb URI: %w", err),
		}
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	conn := &Conn{
		client:   client,
		database: databaseName(uri),
	}

	if opts.BufferCommands {
		return conn, nil
	}

	if err := conn.Ping(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return conn, nil
}

func (d Dialer) clientOptions(uri string, opts connection.Options) *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(uri)
	if d.AppName != "" {
		clientOpts.SetAppName(d.AppName)
	}
	if d.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(d.MaxPoolSize)
	}
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
		clientOpts.SetServerSelectionTimeout(opts.Timeout)
	}
	return clientOpts
}

// databaseName reads the path segment of a mongodb URI without resolving
// hosts, which for mongodb+srv would need DNS
func databaseName(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	i := strings.Index(rest, "/")
	if i < 0 {
		return defaultDatabase
	}

	name, err := url.PathUnescape(rest[i+1:])
	if err != nil || name == "" {
		return defaultDatabase
	}
	return name
}
