package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stealthcompany.com/devevent/internal/connection"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "Path database", uri: "mongodb://localhost:27017/events", expected: "events"},
		{name: "With options", uri: "mongodb://u:p@h1:27017,h2:27017/events?replicaSet=rs0", expected: "events"},
		{name: "SRV", uri: "mongodb+srv://u:p@cluster0.abcde.mongodb.net/devevent-prod?retryWrites=true", expected: "devevent-prod"},
		{name: "No path", uri: "mongodb://localhost:27017", expected: "devevent"},
		{name: "Empty path", uri: "mongodb://localhost:27017/?authSource=admin", expected: "devevent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, databaseName(tt.uri))
		})
	}
}

func TestClientOptions(t *testing.T) {
	dialer := Dialer{AppName: "devevent-api", MaxPoolSize: 20}
	clientOpts := dialer.clientOptions("mongodb://localhost:27017/events", connection.Options{Timeout: 3 * time.Second})

	require.NoError(t, clientOpts.Validate())
	require.NotNil(t, clientOpts.AppName)
	assert.Equal(t, "devevent-api", *clientOpts.AppName)
	require.NotNil(t, clientOpts.MaxPoolSize)
	assert.EqualValues(t, 20, *clientOpts.MaxPoolSize)
	require.NotNil(t, clientOpts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *clientOpts.ConnectTimeout)
	require.NotNil(t, clientOpts.ServerSelectionTimeout)
	assert.Equal(t, 3*time.Second, *clientOpts.ServerSelectionTimeout)
}

func TestDialInvalidURI(t *testing.T) {
	_, err := Dialer{}.Dial(context.Background(), "mongodb://localhost:27017/events?maxPoolSize=notanumber", connection.Options{})
	require.Error(t, err)
	assert.True(t, connection.IsConfigurationError(err))
}

func TestDialUnreachableFailsFast(t *testing.T) {
	uri := "mongodb://127.0.0.1:1/events?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	start := time.Now()
	conn, err := Dialer{}.Dial(context.Background(), uri, connection.Options{})
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.False(t, connection.IsConfigurationError(err))
	assert.Less(t, time.Since(start), 10*time.Second)
}
