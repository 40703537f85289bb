package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"stealthcompany.com/devevent/internal/api"
	"stealthcompany.com/devevent/internal/config"
	"stealthcompany.com/devevent/internal/connection"
	"stealthcompany.com/devevent/internal/drivers"
	"stealthcompany.com/devevent/internal/metrics"
	"stealthcompany.com/devevent/internal/orchestrator"
	"stealthcompany.com/devevent/pkg/zerolog_config"
)

const (
	appName         = "devevent-api"
	shutdownTimeout = 30 * time.Second
	metricsInterval = 15 * time.Second
)

func main() {
	// Load .env file from parent directory, then current directory
	config.LoadEnvFiles("../.env", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	cmd := &cli.Command{
		Name:  "api",
		Usage: "serve the devevent HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database-uri", Value: cfg.DatabaseURI, Usage: "database connection URI"},
			&cli.StringFlag{Name: "port", Value: cfg.APIPort, Usage: "HTTP listen port"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
			&cli.DurationFlag{Name: "connect-timeout", Value: cfg.ConnectTimeout, Usage: "bound on one connection attempt, 0 for none"},
			&cli.DurationFlag{Name: "retry-cooldown", Value: cfg.RetryCooldown, Usage: "minimum wait before retrying a failed connection"},
			&cli.BoolFlag{Name: "system-metrics", Value: cfg.EnableSystemMetrics, Usage: "sample CPU and memory metrics"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.DatabaseURI = cmd.String("database-uri")
			cfg.APIPort = cmd.String("port")
			cfg.LogLevel = cmd.String("log-level")
			cfg.ConnectTimeout = cmd.Duration("connect-timeout")
			cfg.RetryCooldown = cmd.Duration("retry-cooldown")
			cfg.EnableSystemMetrics = cmd.Bool("system-metrics")
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("API service failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	zerolog_config.SetAppPrefix(appName)
	if err := zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	log.Info().Msg("Starting devevent-api service")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := orchestrator.NewSignalHandler()
	defer signals.Stop()
	signals.HandleSignals(ctx, cancel)

	if cfg.EnableSystemMetrics {
		metrics.StartSystemMetrics(ctx, metricsInterval)
	}

	// The database is dialed lazily by the first request that needs it
	manager := drivers.NewManager(cfg, appName,
		connection.WithObserver(metrics.NewConnectionObserver()),
	)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           api.SetupRoutes(manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.APIPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down gracefully...")
	case err := <-serveErr:
		return fmt.Errorf("start server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	if err := manager.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close database connection")
	}

	log.Info().Msg("API service shutdown complete")
	return nil
}
