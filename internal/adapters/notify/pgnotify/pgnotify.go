// Package pgnotify turns Postgres LISTEN/NOTIFY messages on the leaderboard
// channel into change events.
package pgnotify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/remotesync"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/logger"
)

// SourceName labels events from this package.
const SourceName = "postgres"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	eventBuffer          = 64
)

// Source opens LISTEN subscriptions.
type Source struct {
	dsn     string
	channel string
	clock   clockwork.Clock
	logger  logger.Logger
}

// NewSource returns a Source for channel on the database at dsn.
func NewSource(dsn, channel string, log logger.Logger, clock clockwork.Clock) *Source {
	if log == nil {
		log = logger.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Source{dsn: dsn, channel: channel, clock: clock, logger: log}
}

// Subscribe starts listening. The subscription ends on the first lost
// connection; it does not reconnect.
func (s *Source) Subscribe(ctx context.Context) (remotesync.Subscription, error) {
	sub := &subscription{
		events: make(chan model.ChangeEvent, eventBuffer),
		lost:   make(chan error, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		clock:  s.clock,
		logger: s.logger,
	}
	l := pq.NewListener(s.dsn, minReconnectInterval, maxReconnectInterval, sub.onEvent)
	if err := l.Listen(s.channel); err != nil {
		_ = l.Close()
		return nil, errs.Wrap("pgnotify.Subscribe", err)
	}
	sub.listener = l
	go sub.pump(ctx)
	s.logger.Info(ctx, "listening for leaderboard changes", logger.String("channel", s.channel))
	return sub, nil
}

type subscription struct {
	listener *pq.Listener
	events   chan model.ChangeEvent
	lost     chan error
	done     chan struct{}
	exited   chan struct{}
	clock    clockwork.Clock
	logger   logger.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *subscription) Events() <-chan model.ChangeEvent { return s.events }

// onEvent runs on the listener's goroutine and must not block.
func (s *subscription) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
		select {
		case s.lost <- err:
		default:
		}
	}
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.exited)
	defer close(s.events)
	defer func() { s.closeErr = s.listener.Close() }()

	for {
		select {
		case <-s.done:
			return
		case err := <-s.lost:
			s.logger.Warn(ctx, "notification connection lost", logger.Error(err))
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// pq sends nil after a reconnect; notifications may have been missed.
				continue
			}
			ev := Decode(n.Extra)
			ev.ReceivedAt = s.clock.Now()
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Close stops listening and waits for the pump to exit. Safe to call repeatedly.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.exited
	return s.closeErr
}

type payload struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// Decode reads the trigger payload. Anything unparsable still yields an event.
func Decode(extra string) model.ChangeEvent {
	ev := model.ChangeEvent{Source: SourceName}
	var p payload
	if json.Unmarshal([]byte(extra), &p) == nil {
		ev.Op, ev.RowID = p.Op, p.ID
	}
	return ev
}
