package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/devevent/internal/connection"
)

// ConnectionProvider is the part of connection.Manager the handlers use
type ConnectionProvider interface {
	Acquire(ctx context.Context) (connection.Conn, error)
	Snapshot() connection.Snapshot
}

// HealthHandler reports that the process is up. It never touches the database.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadyHandler acquires the shared connection and pings it. The first
// request after startup or after a failure triggers the connection attempt.
func ReadyHandler(conns ConnectionProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		conn, err := conns.Acquire(ctx)
		if err != nil {
			status := readyErrorStatus(err)
			log.Warn().
				Err(err).
				Str("path", r.URL.Path).
				Int("status", status).
				Msg("Database not ready")

			writeJSON(w, status, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		if err := conn.Ping(ctx); err != nil {
			log.Warn().
				Err(err).
				Str("driver", conn.Driver()).
				Msg("Database ping failed")

			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"driver": conn.Driver(),
				"error":  err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"driver": conn.Driver(),
			"state":  conns.Snapshot().State.String(),
		})
	}
}

// StateHandler returns the connection manager snapshot
func StateHandler(conns ConnectionProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, conns.Snapshot())
	}
}

// readyErrorStatus maps an Acquire error to a response code
func readyErrorStatus(err error) int {
	switch {
	case connection.IsConfigurationError(err):
		return http.StatusInternalServerError
	case connection.IsConnectionError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
