package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/huntboard/pkg/errs"
)

const (
	envPrefix  = "HUNT_"
	envConfig  = "HUNT_CONFIG"
	envDotFile = "HUNT_ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if HUNT_CONFIG is set
//  3. env (prefix HUNT_), seeded from a .env file that never overrides the process env
func Load(ctx context.Context) (*Config, error) {
	const op = "config.Load"
	base := New(ctx)

	dotenv := os.Getenv(envDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.WrapKind(op, ErrLoadConfig, err)
		}
	}

	// HUNT_STORE_URL -> store_url (flat keys, underscores preserved).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, errs.WrapKind(op, ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.ReloadWorkers <= 0:
		return errors.New("reload_workers must be positive")
	case c.ReloadQueueSize <= 0:
		return errors.New("reload_queue_size must be positive")
	case c.IdempotencyCacheSize <= 0:
		return errors.New("idempotency_cache_size must be positive")
	case c.NotifySource != NotifyPostgres && c.NotifySource != NotifyNATS:
		return errors.New("notify_source must be postgres or nats")
	}
	return nil
}
