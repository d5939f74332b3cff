// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/okian/huntboard/internal/adapters/repository"
	"github.com/okian/huntboard/internal/auth"
	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/projection"
	"github.com/okian/huntboard/internal/domain/remotesync"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	// Degraded returns a non-nil error while no remote store is attached.
	Degraded() error

	// Read operations expose the current snapshot.
	Board(query, dept string) (projection.Board, bool)
	Entries() []model.Entry

	// Commands forward to the remote store.
	Submit(ctx context.Context, key string, e model.NewEntry) (bool, error)
	Remove(ctx context.Context, id string) error
	Reload(ctx context.Context) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps               Dependencies
	authz              auth.Authorizer
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	metaHandler        *MetaHandler
	entriesHandler     *EntriesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, authz auth.Authorizer) *Server {
	return &Server{
		deps:               deps,
		authz:              authz,
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		metaHandler:        NewMetaHandler(),
		entriesHandler:     NewEntriesHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/meta", MetricsMiddleware(s.metaHandler.HandleMeta, "meta"))
	r.Get("/rules", MetricsMiddleware(s.metaHandler.HandleRules, "rules"))

	r.Group(func(r chi.Router) {
		r.Use(RequireStore(s.deps))
		r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(s.authz))
			r.Get("/entries", MetricsMiddleware(s.entriesHandler.HandleList, "entries"))
			r.Post("/entries", MetricsMiddleware(s.entriesHandler.HandleCreate, "entries"))
			r.Delete("/entries/{id}", MetricsMiddleware(s.entriesHandler.HandleDelete, "entries"))
			r.Post("/reload", MetricsMiddleware(s.entriesHandler.HandleReload, "reload"))
		})
	})
}

// NewRouter builds a chi router with CORS, the API routes and any extra
// mounts (docs, websocket stream).
func NewRouter(ctx context.Context, s *Server, origins []string, mounts ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
	})
	r.Use(c.Handler)

	s.Register(ctx, r)
	for _, m := range mounts {
		m(r)
	}
	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain error kinds onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidEntry), errors.Is(err, ErrBadRequest), errors.Is(err, ErrMissingID):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, remotesync.ErrInsertFailed):
		writeError(w, http.StatusBadGateway, "insert_failed", err)
	case errors.Is(err, remotesync.ErrDeleteFailed):
		writeError(w, http.StatusBadGateway, "delete_failed", err)
	case errors.Is(err, remotesync.ErrQueryFailed):
		writeError(w, http.StatusBadGateway, "query_failed", err)
	case errors.Is(err, repository.ErrDetached):
		writeError(w, http.StatusServiceUnavailable, codeConfigurationRequired, err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
