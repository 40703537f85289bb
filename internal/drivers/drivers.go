package drivers

import (
	"github.com/rs/zerolog/log"
	"stealthcompany.com/devevent/internal/config"
	"stealthcompany.com/devevent/internal/connection"
	"stealthcompany.com/devevent/internal/couchbase"
	"stealthcompany.com/devevent/internal/mongodb"
	"stealthcompany.com/devevent/internal/postgres"
	"stealthcompany.com/devevent/internal/sqlite"
)

// NewRegistry returns a registry with every supported database driver
func NewRegistry(cfg config.Config, appName string) *connection.Registry {
	r := connection.NewRegistry()
	r.Register(couchbase.Dialer{
		Username: cfg.Couchbase.Username,
		Password: cfg.Couchbase.Password,
		Bucket:   cfg.Couchbase.Bucket,
	}, couchbase.Schemes...)
	r.Register(mongodb.Dialer{AppName: appName}, mongodb.Schemes...)
	r.Register(postgres.Dialer{}, postgres.Schemes...)
	r.Register(sqlite.Dialer{}, sqlite.Schemes...)
	return r
}

// NewManager builds the connection manager for cfg.DatabaseURI. Extra
// options are applied after the ones derived from cfg.
func NewManager(cfg config.Config, appName string, opts ...connection.Option) *connection.Manager {
	registry := NewRegistry(cfg, appName)

	log.Debug().
		Strs("schemes", registry.Schemes()).
		Str("uri", connection.Redact(cfg.DatabaseURI)).
		Msg("Database drivers registered")

	base := []connection.Option{
		connection.WithConnectTimeout(cfg.ConnectTimeout),
		connection.WithRetryCooldown(cfg.RetryCooldown),
	}
	return connection.New(cfg.DatabaseURI, registry, append(base, opts...)...)
}
