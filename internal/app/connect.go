package service

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/internal/adapters/notify/natsnotify"
	"github.com/okian/huntboard/internal/adapters/notify/pgnotify"
	"github.com/okian/huntboard/internal/adapters/remote/postgres"
	"github.com/okian/huntboard/internal/config"
	"github.com/okian/huntboard/internal/domain/remotesync"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/logger"
)

// Remote is everything the service needs from the outside world.
type Remote struct {
	Store     remotesync.RemoteStore
	Notifier  remotesync.Notifier
	Publisher remotesync.Publisher
	Close     func()
}

// Connector opens the remote side once, at Start. An error puts the service
// into the degraded state for the rest of its life.
type Connector func(ctx context.Context) (*Remote, error)

// PostgresConnector validates cfg, opens the pgx store and picks the change
// source named by notify_source.
func PostgresConnector(cfg *config.Config, log logger.Logger, clock clockwork.Clock) Connector {
	return func(ctx context.Context) (*Remote, error) {
		const op = "service.connect"
		if err := cfg.StoreStatus(); err != nil {
			return nil, err
		}
		dsn, err := postgres.DSN(cfg.StoreURL, cfg.StoreKey)
		if err != nil {
			return nil, errs.WrapKind(op, config.ErrConfigurationMissing, err)
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, errs.WrapKind(op, ErrStoreUnreachable, err)
		}

		remote := &Remote{Store: store, Close: store.Close}
		switch cfg.NotifySource {
		case config.NotifyNATS:
			nc, err := natsnotify.Connect(cfg.NATSURL, cfg.NATSSubject, log.Named("nats"), clock)
			if err != nil {
				// Degrade to command-driven reloads only.
				log.Warn(ctx, "nats unavailable; live updates disabled", logger.Error(err))
				break
			}
			remote.Notifier, remote.Publisher = nc, nc
			remote.Close = func() {
				nc.Close()
				store.Close()
			}
		default:
			remote.Notifier = pgnotify.NewSource(dsn, cfg.NotifyChannel, log.Named("pgnotify"), clock)
		}
		return remote, nil
	}
}
