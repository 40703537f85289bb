package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DATABASE_URI", "MONGODB_URI", "API_PORT", "API_LOG_LEVEL", "ELASTICSEARCH_URL",
	"DB_CONNECT_TIMEOUT", "DB_RETRY_COOLDOWN", "ENABLE_SYSTEM_METRICS",
	"COUCHBASE_USERNAME", "COUCHBASE_PASSWORD", "COUCHBASE_BUCKET",
}

// clearEnv blanks every key Load reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected Config
	}{
		{
			name: "defaults",
			expected: Config{
				APIPort:        "8080",
				LogLevel:       "info",
				ConnectTimeout: 30 * time.Second,
				Couchbase:      CouchbaseConfig{Bucket: "devevent"},
			},
		},
		{
			name: "mongodb uri alias",
			env:  map[string]string{"MONGODB_URI": "mongodb://localhost:27017/devevent"},
			expected: Config{
				DatabaseURI:    "mongodb://localhost:27017/devevent",
				APIPort:        "8080",
				LogLevel:       "info",
				ConnectTimeout: 30 * time.Second,
				Couchbase:      CouchbaseConfig{Bucket: "devevent"},
			},
		},
		{
			name: "everything set",
			env: map[string]string{
				"DATABASE_URI":          "couchbase://devevent-db",
				"MONGODB_URI":           "mongodb://ignored",
				"API_PORT":              "9090",
				"API_LOG_LEVEL":         "debug",
				"ELASTICSEARCH_URL":     "http://elasticsearch:9200",
				"DB_CONNECT_TIMEOUT":    "5s",
				"DB_RETRY_COOLDOWN":     "250ms",
				"ENABLE_SYSTEM_METRICS": "true",
				"COUCHBASE_USERNAME":    "devevent_user",
				"COUCHBASE_PASSWORD":    "password",
				"COUCHBASE_BUCKET":      "events",
			},
			expected: Config{
				DatabaseURI:         "couchbase://devevent-db",
				APIPort:             "9090",
				LogLevel:            "debug",
				ElasticsearchURL:    "http://elasticsearch:9200",
				ConnectTimeout:      5 * time.Second,
				RetryCooldown:       250 * time.Millisecond,
				EnableSystemMetrics: true,
				Couchbase: CouchbaseConfig{
					Username: "devevent_user",
					Password: "password",
					Bucket:   "events",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad timeout", key: "DB_CONNECT_TIMEOUT", val: "thirty"},
		{name: "negative timeout", key: "DB_CONNECT_TIMEOUT", val: "-1s"},
		{name: "negative cooldown", key: "DB_RETRY_COOLDOWN", val: "-5s"},
		{name: "bad bool", key: "ENABLE_SYSTEM_METRICS", val: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_URI=sqlite://:memory:\nAPI_PORT=7070\n"), 0o600))

	// godotenv.Load does not override variables that are already set, even
	// to the empty string, so unset them for this test
	require.NoError(t, os.Unsetenv("DATABASE_URI"))
	require.NoError(t, os.Unsetenv("API_PORT"))

	LoadEnvFiles(filepath.Join(dir, "missing.env"), envFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite://:memory:", cfg.DatabaseURI)
	assert.Equal(t, "7070", cfg.APIPort)
}
