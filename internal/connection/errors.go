package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingURI is returned when no database URI has been configured
	ErrMissingURI = errors.New("database URI is not configured")

	// ErrUnsupportedScheme is returned when no dialer is registered for a URI scheme
	ErrUnsupportedScheme = errors.New("unsupported database URI scheme")

	// ErrNoConnection is returned when a dialer reports success without a handle
	ErrNoConnection = errors.New("dialer returned no connection")
)

// ConfigurationError reports missing or invalid connection configuration.
// It is not retryable: every call fails the same way until the configuration
// is fixed, and no connection attempt is started.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a failed connection attempt. Every caller that
// waited on the attempt receives the same error; the next call retries.
type ConnectionError struct {
	Driver    string
	AttemptID string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s (attempt %s): %v", e.Driver, e.AttemptID, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
