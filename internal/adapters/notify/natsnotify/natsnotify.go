// Package natsnotify carries leaderboard change events over a NATS subject,
// for deployments where the database cannot LISTEN/NOTIFY.
package natsnotify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/remotesync"
	"github.com/okian/huntboard/pkg/errs"
	"github.com/okian/huntboard/pkg/logger"
)

// SourceName labels events received from NATS.
const SourceName = "nats"

const msgBuffer = 64

// Client subscribes to and publishes on one subject.
type Client struct {
	nc      *nats.Conn
	subject string
	clock   clockwork.Clock
	logger  logger.Logger
}

// Connect dials url with reconnects disabled: a lost connection ends the
// subscription rather than silently resuming.
func Connect(url, subject string, log logger.Logger, clock clockwork.Clock) (*Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	opts := []nats.Option{
		nats.Name("huntboard"),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(context.Background(), "nats disconnected", logger.Error(err))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error(context.Background(), "nats error", logger.Error(err))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errs.Wrap("natsnotify.Connect", err)
	}
	return &Client{nc: nc, subject: subject, clock: clock, logger: log}, nil
}

// Subscribe starts receiving change events.
func (c *Client) Subscribe(ctx context.Context) (remotesync.Subscription, error) {
	msgs := make(chan *nats.Msg, msgBuffer)
	ns, err := c.nc.ChanSubscribe(c.subject, msgs)
	if err != nil {
		return nil, errs.Wrap("natsnotify.Subscribe", err)
	}
	sub := &subscription{
		ns:     ns,
		msgs:   msgs,
		events: make(chan model.ChangeEvent, msgBuffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		closed: make(chan struct{}),
		clock:  c.clock,
	}
	c.nc.SetClosedHandler(func(*nats.Conn) { sub.markClosed() })
	go sub.pump()
	c.logger.Info(ctx, "subscribed to leaderboard changes", logger.String("subject", c.subject))
	return sub, nil
}

// Publish announces ev to every subscriber, including this process.
func (c *Client) Publish(_ context.Context, ev model.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errs.Wrap("natsnotify.Publish", err)
	}
	return errs.Wrap("natsnotify.Publish", c.nc.Publish(c.subject, data))
}

// Close drops the connection.
func (c *Client) Close() {
	c.nc.Close()
}

type subscription struct {
	ns     *nats.Subscription
	msgs   chan *nats.Msg
	events chan model.ChangeEvent
	done   chan struct{}
	exited chan struct{}
	closed chan struct{}
	clock  clockwork.Clock

	closeOnce sync.Once
	connOnce  sync.Once
	closeErr  error
}

func (s *subscription) Events() <-chan model.ChangeEvent { return s.events }

func (s *subscription) markClosed() {
	s.connOnce.Do(func() { close(s.closed) })
}

func (s *subscription) pump() {
	defer close(s.exited)
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case <-s.closed:
			return
		case m := <-s.msgs:
			ev := Decode(m.Data)
			ev.ReceivedAt = s.clock.Now()
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Close unsubscribes and waits for the pump to exit.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ns.Unsubscribe()
		close(s.done)
	})
	<-s.exited
	if s.closeErr == nats.ErrConnectionClosed || s.closeErr == nats.ErrBadSubscription {
		return nil
	}
	return s.closeErr
}

// Decode reads a published event. The origin's Source is replaced by
// SourceName; anything unparsable still yields an event.
func Decode(data []byte) model.ChangeEvent {
	var ev model.ChangeEvent
	_ = json.Unmarshal(data, &ev)
	ev.Source = SourceName
	return ev
}
