package drivers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stealthcompany.com/devevent/internal/config"
	"stealthcompany.com/devevent/internal/connection"
	"stealthcompany.com/devevent/internal/sqlite"
)

func TestNewRegistrySchemes(t *testing.T) {
	r := NewRegistry(config.Config{}, "devevent-test")

	assert.Equal(t, []string{
		"couchbase", "couchbases",
		"file",
		"mongodb", "mongodb+srv",
		"postgres", "postgresql",
		"sqlite",
	}, r.Schemes())
}

func TestNewManagerRejectsUnknownScheme(t *testing.T) {
	m := NewManager(config.Config{DatabaseURI: "redis://localhost:6379"}, "devevent-test")

	_, err := m.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, connection.IsConfigurationError(err))
	assert.ErrorIs(t, err, connection.ErrUnsupportedScheme)
	assert.Equal(t, 0, m.Snapshot().Attempts)
}

func TestNewManagerMissingURI(t *testing.T) {
	m := NewManager(config.Config{}, "devevent-test")

	_, err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, connection.ErrMissingURI)
	assert.Equal(t, connection.StateEmpty, m.State())
}

func TestNewManagerConnectsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devevent.db")
	m := NewManager(config.Config{
		DatabaseURI:    "sqlite://" + path,
		ConnectTimeout: 5 * time.Second,
	}, "devevent-test")
	defer m.Close(context.Background())

	conn, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.IsType(t, &sqlite.Conn{}, conn)
	assert.Equal(t, "sqlite", conn.Driver())
	assert.NoError(t, conn.Ping(context.Background()))

	again, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, conn, again)
	assert.Equal(t, connection.StateReady, m.State())
}
