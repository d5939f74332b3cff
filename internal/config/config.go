// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) builds a Config with defaults; Load layers file and env on top.
//   - A missing or malformed remote store is not a load error. The service
//     starts degraded and StoreStatus reports why.
package config

import (
	"context"
	"net/url"
	"strings"

	"github.com/okian/huntboard/pkg/errs"
)

// Notification sources.
const (
	NotifyPostgres = "postgres"
	NotifyNATS     = "nats"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreURL locates the remote store, e.g. postgres://host:5432/hunt.
	StoreURL string `koanf:"store_url"`

	// StoreKey is the credential presented to the remote store.
	StoreKey string `koanf:"store_key"`

	// NotifySource selects where change notifications come from: postgres or nats.
	NotifySource string `koanf:"notify_source"`

	// NotifyChannel is the LISTEN/NOTIFY channel fired by the leaderboard trigger.
	NotifyChannel string `koanf:"notify_channel"`

	// NATSURL and NATSSubject configure the nats notification source.
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// ReloadWorkers sets how many reloads may run concurrently.
	ReloadWorkers int `koanf:"reload_workers"`

	// ReloadQueueSize bounds pending reload requests.
	ReloadQueueSize int `koanf:"reload_queue_size"`

	// IdempotencyCacheSize bounds remembered admin idempotency keys.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// AdminPasswordHash is a bcrypt hash. Empty disables admin routes.
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// CORSAllowedOrigins is a comma separated list; "*" allows any origin.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		NotifySource:         NotifyPostgres,
		NotifyChannel:        "leaderboard_changes",
		NATSURL:              "nats://127.0.0.1:4222",
		NATSSubject:          "leaderboard.changes",
		ReloadWorkers:        2,
		ReloadQueueSize:      1024,
		IdempotencyCacheSize: 1024,
		CORSAllowedOrigins:   "*",
	}
}

// StoreStatus reports whether the remote store settings are usable. It
// returns an ErrConfigurationMissing kind naming the offending setting.
func (c *Config) StoreStatus() error {
	const op = "config.StoreStatus"
	if strings.TrimSpace(c.StoreURL) == "" {
		return errs.WrapKind(op, ErrConfigurationMissing, errStoreURLEmpty)
	}
	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return errs.WrapKind(op, ErrConfigurationMissing, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return errs.WrapKind(op, ErrConfigurationMissing, errStoreURLScheme)
	}
	if strings.TrimSpace(c.StoreKey) == "" {
		return errs.WrapKind(op, ErrConfigurationMissing, errStoreKeyEmpty)
	}
	return nil
}

// AllowedOrigins splits CORSAllowedOrigins into a clean list.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
