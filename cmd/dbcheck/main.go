package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"stealthcompany.com/devevent/internal/config"
	"stealthcompany.com/devevent/internal/connection"
	"stealthcompany.com/devevent/internal/drivers"
	"stealthcompany.com/devevent/pkg/zerolog_config"
)

const appName = "devevent-dbcheck"

// Exit codes
const (
	exitConnection    = 1
	exitConfiguration = 2
)

// checker is the part of connection.Manager a check needs
type checker interface {
	Acquire(ctx context.Context) (connection.Conn, error)
	Snapshot() connection.Snapshot
	Close(ctx context.Context) error
}

func main() {
	config.LoadEnvFiles("../.env", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	cmd := &cli.Command{
		Name:  "dbcheck",
		Usage: "connect to the configured database once and report the result",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database-uri", Value: cfg.DatabaseURI, Usage: "database connection URI"},
			&cli.DurationFlag{Name: "timeout", Value: cfg.ConnectTimeout, Usage: "bound on the connection attempt"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.DatabaseURI = cmd.String("database-uri")
			cfg.ConnectTimeout = cmd.Duration("timeout")
			cfg.LogLevel = cmd.String("log-level")

			zerolog_config.SetAppPrefix(appName)
			if err := zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			return check(ctx, drivers.NewManager(cfg, appName), cmd.Root().Writer, cfg.ConnectTimeout)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("Database check failed")
		os.Exit(exitConnection)
	}
}

// check acquires and pings the connection, writes the manager snapshot to
// out as JSON and closes the connection. Failures are returned as
// cli.ExitCoder values carrying the process exit code.
func check(ctx context.Context, m checker, out io.Writer, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := m.Acquire(ctx)
	if err == nil {
		if pingErr := conn.Ping(ctx); pingErr != nil {
			err = fmt.Errorf("ping %s: %w", conn.Driver(), pingErr)
		}
	}

	if encErr := writeSnapshot(out, m.Snapshot()); encErr != nil {
		log.Error().Err(encErr).Msg("Failed to write snapshot")
	}

	if closeErr := m.Close(context.Background()); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to close database connection")
	}

	if err != nil {
		if connection.IsConfigurationError(err) {
			return cli.Exit(err.Error(), exitConfiguration)
		}
		return cli.Exit(err.Error(), exitConnection)
	}

	log.Info().
		Str("driver", conn.Driver()).
		Dur("duration", time.Since(start)).
		Msg("Database is reachable")
	return nil
}

func writeSnapshot(out io.Writer, snap connection.Snapshot) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
