package zerolog_config

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var appPrefix string
var setAppPrefixOnce *sync.Once = &sync.Once{}
var startupLoggerOnce *sync.Once = &sync.Once{}

// ElasticsearchWriter sends logs directly to Elasticsearch
type ElasticsearchWriter struct {
	URL    string
	Client *http.Client
}

func (ew ElasticsearchWriter) Write(p []byte) (n int, err error) {
	client := ew.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Post(
		ew.URL+"/_doc",
		"application/json",
		bytes.NewReader(p),
	)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode)
	}

	return len(p), nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger builds the service logger: pretty console output to out, plus
// ECS documents shipped to Elasticsearch when elasticsearchURL is set
func NewLogger(out io.Writer, elasticsearchURL, subAddress string) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}

	if elasticsearchURL == "" {
		return zerolog.New(consoleWriter).With().Str("app", appPrefix).
			Timestamp().Logger()
	}

	// ECS documents go to Elasticsearch; the console writer renders the same events
	esWriter := &ElasticsearchWriter{
		URL:    strings.TrimRight(elasticsearchURL, "/") + "/" + subAddress,
		Client: &http.Client{Timeout: 5 * time.Second},
	}

	multi := zerolog.MultiLevelWriter(
		esWriter,
		consoleWriter,
	)

	return ecszerolog.New(multi).With().Str("app", appPrefix).Logger()
}

// SetAppPrefix sets the app prefix
func SetAppPrefix(app string) {
	setAppPrefixOnce.Do(func() {
		appPrefix = app
	})
}

// StartupWithEnv sets up the global logger with the given Elasticsearch URL,
// index sub-address and level. It returns an error if the subAddress is empty.
// Run SetAppPrefix before StartupWithEnv.
func StartupWithEnv(elasticsearchURL string, subAddress string, level string) error {
	if subAddress == "" {
		return fmt.Errorf("subAddress is required")
	}
	startupLoggerOnce.Do(func() {
		zerolog.SetGlobalLevel(ParseLevel(level))
		log.Logger = NewLogger(os.Stdout, elasticsearchURL, subAddress)
	})
	return nil
}
