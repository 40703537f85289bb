package connection

import "time"

// State is the lifecycle position of a Manager
type State int32

const (
	// StateEmpty means no connection exists and none is being made
	StateEmpty State = iota
	// StatePending means one connection attempt is in flight
	StatePending
	// StateReady means a connection is cached and served to every caller
	StateReady
	// StateFailed means the last attempt failed; the next call retries
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and logs
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome classifies how an Acquire call ended
type Outcome string

const (
	OutcomeCached          Outcome = "cached"
	OutcomeWaited          Outcome = "waited"
	OutcomeConfigError     Outcome = "config_error"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeCancelled       Outcome = "cancelled"
)

// Snapshot is a read-only view of a Manager
type Snapshot struct {
	State       State      `json:"state"`
	Driver      string     `json:"driver"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"lastError,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
}

// Observer receives connection lifecycle events, typically to record metrics
type Observer interface {
	ConnectAttempt(driver string, err error, elapsed time.Duration)
	StateChanged(state State)
	Acquired(outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) ConnectAttempt(string, error, time.Duration) {}
func (nopObserver) StateChanged(State)                          {}
func (nopObserver) Acquired(Outcome)                            {}
