// Package stream pushes the leaderboard to websocket clients after every
// snapshot swap.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/okian/huntboard/internal/adapters/repository"
	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/projection"
	"github.com/okian/huntboard/pkg/logger"
	"github.com/okian/huntboard/pkg/metrics"
)

// MessageBoard is the only message type the hub sends.
const MessageBoard = "board"

// Source is the slice of the snapshot store the hub reads.
type Source interface {
	Current() *repository.Snapshot
	Loading() bool
	Subscribe() <-chan *repository.Snapshot
	Unsubscribe(ch <-chan *repository.Snapshot)
}

// Config holds configuration for websocket connections.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default websocket configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      16,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
}

// Message is the frame sent to clients.
type Message struct {
	Type      string           `json:"type"`
	Version   uint64           `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
	Loading   bool             `json:"loading"`
	Board     projection.Board `json:"board"`
}

// Hub tracks connected clients and fans snapshots out to them.
type Hub struct {
	source   Source
	config   Config
	upgrader websocket.Upgrader
	gate     func() error
	logger   logger.Logger
	clock    clockwork.Clock

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client is one websocket connection.
type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time

	hub *Hub

	// mu guards Send against close and orders versions.
	mu      sync.Mutex
	closed  bool
	sent    bool
	version uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock sets the clock used for connection timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(h *Hub) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithGate rejects upgrades with 503 while gate returns an error.
func WithGate(gate func() error) Option {
	return func(h *Hub) { h.gate = gate }
}

// NewHub creates a hub reading from source.
func NewHub(source Source, config Config, opts ...Option) *Hub {
	h := &Hub{
		source: source,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:  logger.NewNop(),
		clock:   clockwork.NewRealClock(),
		clients: make(map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers GET /ws on r.
func (h *Hub) Mount(r chi.Router) {
	r.Get("/ws", h.HandleWS)
}

// Run forwards snapshots until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	sub := h.source.Subscribe()
	defer h.source.Unsubscribe(sub)
	h.logger.Info(ctx, "stream hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info(ctx, "stream hub stopped")
			return
		case snap, ok := <-sub:
			if !ok {
				h.closeAll()
				return
			}
			h.broadcast(ctx, snap)
		}
	}
}

// HandleWS upgrades the request and sends the current board straight away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.gate != nil {
		if err := h.gate(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn(ctx, "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &Client{
		ID:          uuid.NewString(),
		Conn:        conn,
		Send:        make(chan []byte, max(h.config.SendBuffer, 1)),
		ConnectedAt: h.clock.Now(),
		hub:         h,
	}
	// Register before reading the board so no swap falls between the two.
	h.register(c)
	go c.writePump()
	go c.readPump()

	snap := h.source.Current()
	payload, err := h.encode(snap)
	if err != nil {
		h.logger.Error(ctx, "failed to encode board", logger.Error(err))
		metrics.RecordErrorByComponent("stream", "encode")
		h.unregister(c)
		return
	}
	if !c.offer(snap.Version, payload) {
		h.unregister(c)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) encode(snap *repository.Snapshot) ([]byte, error) {
	msg := Message{
		Type:      MessageBoard,
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
		Loading:   h.source.Loading(),
		Board:     projection.BuildBoard(snap.Entries, "", model.DepartmentAll),
	}
	return json.Marshal(msg)
}

func (h *Hub) broadcast(ctx context.Context, snap *repository.Snapshot) {
	if h.Count() == 0 {
		return
	}
	payload, err := h.encode(snap)
	if err != nil {
		h.logger.Error(ctx, "failed to encode board", logger.Error(err))
		metrics.RecordErrorByComponent("stream", "encode")
		return
	}

	// Sends happen under the read lock; Send is only closed under the write lock.
	var slow []*Client
	h.mu.RLock()
	n := len(h.clients)
	for c := range h.clients {
		if !c.offer(snap.Version, payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		// A slow client reconnects and gets the current board.
		h.logger.Warn(ctx, "client send buffer full, closing", logger.String("client_id", c.ID))
		metrics.RecordErrorByComponent("stream", "slow_client")
		h.unregister(c)
	}
	h.logger.Debug(ctx, "board broadcast",
		logger.Int("clients", n),
		logger.Any("version", snap.Version))
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateStreamClients(n)
	h.logger.Info(context.Background(), "websocket client connected",
		logger.String("client_id", c.ID), logger.Int("clients", n))
}

// unregister is safe to call more than once per client.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	c.mu.Lock()
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	n := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateStreamClients(n)
	h.logger.Info(context.Background(), "websocket client disconnected",
		logger.String("client_id", c.ID), logger.Int("clients", n))
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

// offer queues payload unless a newer version was already queued.
// It reports false when the send buffer is full.
func (c *Client) offer(version uint64, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.sent && version <= c.version) {
		return true
	}
	select {
	case c.Send <- payload:
		c.sent = true
		c.version = version
		return true
	default:
		return false
	}
}

// writePump owns all writes to the connection.
func (c *Client) writePump() {
	cfg := c.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug(context.Background(), "websocket write failed",
					logger.String("client_id", c.ID), logger.Error(err))
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func (c *Client) readPump() {
	cfg := c.hub.config
	defer c.hub.unregister(c)

	c.Conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug(context.Background(), "websocket read ended",
					logger.String("client_id", c.ID), logger.Error(err))
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
