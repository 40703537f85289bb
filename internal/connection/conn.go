package connection

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Conn is an established, ready-to-use database handle
type Conn interface {
	// Driver names the backing database driver (e.g. "couchbase", "postgres")
	Driver() string

	// Ping checks that the database is still reachable
	Ping(ctx context.Context) error

	// Close releases the handle and everything it holds
	Close(ctx context.Context) error
}

// Options are handed to a Dialer on every connection attempt
type Options struct {
	// BufferCommands lets a driver return a handle before it is ready and
	// queue operations until it is. The Manager always dials with it off,
	// so operations issued before the connection is ready fail fast.
	BufferCommands bool

	// Timeout bounds a single dial. Zero means no bound.
	Timeout time.Duration
}

// Dialer establishes a connection to the database at uri
type Dialer interface {
	Dial(ctx context.Context, uri string, opts Options) (Conn, error)
}

// DialerFunc adapts a plain function to the Dialer interface
type DialerFunc func(ctx context.Context, uri string, opts Options) (Conn, error)

// Dial calls f(ctx, uri, opts)
func (f DialerFunc) Dial(ctx context.Context, uri string, opts Options) (Conn, error) {
	return f(ctx, uri, opts)
}

// Scheme returns the lower-cased scheme of a connection URI, or "" if it has none
func Scheme(uri string) string {
	i := strings.Index(uri, ":")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

// Redact strips the password from a connection URI so it can be logged
func Redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		if scheme := Scheme(uri); scheme != "" {
			return scheme + "://<redacted>"
		}
		return "<redacted>"
	}
	return u.Redacted()
}
