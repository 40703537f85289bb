package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// URIKey is the configuration key the database URI is read from
const URIKey = "DATABASE_URI"

// Manager owns the process-wide database handle. It connects lazily on the
// first Acquire, shares one in-flight attempt between every concurrent
// caller, caches the handle once ready and forgets a failed attempt so the
// next call retries.
type Manager struct {
	uri           string
	dialer        Dialer
	dialOpts      Options
	retryCooldown time.Duration
	logger        zerolog.Logger
	observer      Observer
	now           func() time.Time

	mu          sync.Mutex
	state       State
	conn        Conn
	pending     *attempt
	attempts    int
	lastErr     error
	connectedAt time.Time
	failedAt    time.Time
}

// attempt is one in-flight dial shared by all its waiters. conn and err are
// written once, before done is closed.
type attempt struct {
	id     string
	number int
	done   chan struct{}
	conn   Conn
	err    error
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used for connection lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithObserver sets the observer notified of attempts, state changes and acquisitions
func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// WithConnectTimeout bounds each dial. Zero leaves dials unbounded.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.dialOpts.Timeout = timeout
	}
}

// WithRetryCooldown makes calls arriving within d of a failed attempt return
// that failure instead of dialing again. Zero retries immediately.
func WithRetryCooldown(d time.Duration) Option {
	return func(m *Manager) {
		m.retryCooldown = d
	}
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager that dials uri through dialer. No I/O happens until
// the first Acquire.
func New(uri string, dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		uri:      uri,
		dialer:   dialer,
		dialOpts: Options{BufferCommands: false},
		logger:   log.Logger.With().Str("component", "connection").Logger(),
		observer: nopObserver{},
		now:      time.Now,
		state:    StateEmpty,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns the cached connection, or waits for the shared connection
// attempt, starting it if none is in flight. A missing or unusable URI
// yields a *ConfigurationError without dialing; a failed attempt yields a
// *ConnectionError to every caller that waited on it. If ctx is done first
// the caller stops waiting but the attempt carries on for the others.
func (m *Manager) Acquire(ctx context.Context) (Conn, error) {
	m.mu.Lock()

	if m.conn != nil {
		conn := m.conn
		m.mu.Unlock()
		m.observer.Acquired(OutcomeCached)
		return conn, nil
	}

	a := m.pending
	if a == nil {
		if err := m.validate(); err != nil {
			m.mu.Unlock()
			m.logger.Error().Err(err).Msg("Cannot connect to database")
			m.observer.Acquired(OutcomeConfigError)
			return nil, err
		}

		if remaining := m.cooldownRemaining(); remaining > 0 {
			err := m.lastErr
			m.mu.Unlock()
			m.logger.Warn().
				Err(err).
				Dur("retry_in", remaining).
				Msg("Database connection failed recently, not retrying yet")
			m.observer.Acquired(OutcomeConnectionError)
			return nil, err
		}

		a = m.start(ctx)
	}
	m.mu.Unlock()

	select {
	case <-a.done:
	case <-ctx.Done():
		m.observer.Acquired(OutcomeCancelled)
		return nil, ctx.Err()
	}

	if a.err != nil {
		if IsConfigurationError(a.err) {
			m.observer.Acquired(OutcomeConfigError)
		} else {
			m.observer.Acquired(OutcomeConnectionError)
		}
		return nil, a.err
	}

	m.observer.Acquired(OutcomeWaited)
	return a.conn, nil
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a read-only view of the manager
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:    m.state,
		Driver:   Scheme(m.uri),
		Attempts: m.attempts,
	}
	if m.conn != nil {
		snap.Driver = m.conn.Driver()
		connectedAt := m.connectedAt
		snap.ConnectedAt = &connectedAt
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
		failedAt := m.failedAt
		snap.FailedAt = &failedAt
	}
	return snap
}

// Close releases the cached connection and returns the manager to the empty
// state. An attempt already in flight is not interrupted.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	if m.pending == nil {
		m.setState(StateEmpty)
	}
	m.mu.Unlock()

	if conn == nil {
		return nil
	}

	m.logger.Info().Str("driver", conn.Driver()).Msg("Closing database connection")
	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("close %s connection: %w", conn.Driver(), err)
	}
	return nil
}

// validate runs with m.mu held
func (m *Manager) validate() error {
	if m.uri == "" {
		return &ConfigurationError{Key: URIKey, Err: ErrMissingURI}
	}
	if v, ok := m.dialer.(interface{ Validate(uri string) error }); ok {
		if err := v.Validate(m.uri); err != nil {
			if IsConfigurationError(err) {
				return err
			}
			return &ConfigurationError{Key: URIKey, Err: err}
		}
	}
	return nil
}

// cooldownRemaining runs with m.mu held
func (m *Manager) cooldownRemaining() time.Duration {
	if m.retryCooldown <= 0 || m.state != StateFailed {
		return 0
	}
	return m.retryCooldown - m.now().Sub(m.failedAt)
}

// start records a new pending attempt and dials in the background. It runs
// with m.mu held. The dial is detached from ctx cancellation so that one
// caller giving up does not fail everyone else waiting on the attempt.
func (m *Manager) start(ctx context.Context) *attempt {
	m.attempts++
	a := &attempt{
		id:     uuid.NewString(),
		number: m.attempts,
		done:   make(chan struct{}),
	}
	m.pending = a
	m.setState(StatePending)

	go m.run(context.WithoutCancel(ctx), a)
	return a
}

func (m *Manager) run(ctx context.Context, a *attempt) {
	driver := Scheme(m.uri)
	logger := m.logger.With().
		Str("attempt_id", a.id).
		Int("attempt", a.number).
		Str("driver", driver).
		Logger()

	if m.dialOpts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.dialOpts.Timeout)
		defer cancel()
	}

	logger.Info().Str("uri", Redact(m.uri)).Msg("Connecting to database")

	start := m.now()
	conn, err := m.dial(ctx)
	elapsed := m.now().Sub(start)

	if err == nil && conn == nil {
		err = ErrNoConnection
	}

	m.mu.Lock()
	m.pending = nil
	if err != nil {
		if IsConfigurationError(err) {
			a.err = err
		} else {
			a.err = &ConnectionError{Driver: driver, AttemptID: a.id, Err: err}
		}
		m.lastErr = a.err
		m.failedAt = m.now()
		m.setState(StateFailed)
	} else {
		a.conn = conn
		m.conn = conn
		m.lastErr = nil
		m.connectedAt = m.now()
		m.setState(StateReady)
	}
	m.mu.Unlock()

	m.observer.ConnectAttempt(driver, err, elapsed)
	if a.err != nil {
		logger.Error().Err(a.err).Dur("duration", elapsed).Msg("Database connection failed")
	} else {
		logger.Info().Dur("duration", elapsed).Msg("Database connection established")
	}

	close(a.done)
}

// dial calls the dialer, turning a panic into an error so waiters are
// always released
func (m *Manager) dial(ctx context.Context) (conn Conn, err error) {
	defer func() {
		if r := recover(); r != nil {
			conn = nil
			err = fmt.Errorf("dialer panicked: %v", r)
		}
	}()
	return m.dialer.Dial(ctx, m.uri, m.dialOpts)
}

// setState runs with m.mu held
func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.observer.StateChanged(s)
}
