package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the services read from the environment
type Config struct {
	// DatabaseURI selects the driver by scheme. It may be empty: a missing
	// URI is reported by the connection manager on first use.
	DatabaseURI string

	APIPort          string
	LogLevel         string
	ElasticsearchURL string

	ConnectTimeout      time.Duration
	RetryCooldown       time.Duration
	EnableSystemMetrics bool

	Couchbase CouchbaseConfig
}

// CouchbaseConfig holds credentials used when the URI carries none
type CouchbaseConfig struct {
	Username string
	Password string
	Bucket   string
}

// LoadEnvFiles loads the first .env file found among paths into the
// process environment. Variables already set are not overridden.
func LoadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			log.Info().Str("path", path).Msg("Loaded environment file")
			return
		}
		log.Debug().Str("path", path).Msg("Environment file not found")
	}
	log.Info().Msg("No .env file found, assuming environment variables are set")
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	cfg := Config{
		DatabaseURI:      firstEnv("DATABASE_URI", "MONGODB_URI"),
		APIPort:          getEnvOrDefault("API_PORT", "8080"),
		LogLevel:         getEnvOrDefault("API_LOG_LEVEL", "info"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
		Couchbase: CouchbaseConfig{
			Username: os.Getenv("COUCHBASE_USERNAME"),
			Password: os.Getenv("COUCHBASE_PASSWORD"),
			Bucket:   getEnvOrDefault("COUCHBASE_BUCKET", "devevent"),
		},
	}

	var err error
	if cfg.ConnectTimeout, err = durationEnv("DB_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryCooldown, err = durationEnv("DB_RETRY_COOLDOWN", 0); err != nil {
		return Config{}, err
	}
	if cfg.EnableSystemMetrics, err = boolEnv("ENABLE_SYSTEM_METRICS", false); err != nil {
		return Config{}, err
	}

	if cfg.ConnectTimeout < 0 {
		return Config{}, fmt.Errorf("DB_CONNECT_TIMEOUT must not be negative, got %s", cfg.ConnectTimeout)
	}
	if cfg.RetryCooldown < 0 {
		return Config{}, fmt.Errorf("DB_RETRY_COOLDOWN must not be negative, got %s", cfg.RetryCooldown)
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of key, or def when it is unset or empty
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
