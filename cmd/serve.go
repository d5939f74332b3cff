package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/huntboard/internal/adapters/http/api"
	"github.com/okian/huntboard/internal/adapters/http/stream"
	"github.com/okian/huntboard/internal/adapters/http/swagger"
	service "github.com/okian/huntboard/internal/app"
	"github.com/okian/huntboard/internal/auth"
	"github.com/okian/huntboard/internal/config"
	"github.com/okian/huntboard/pkg/logger"
	"github.com/okian/huntboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// serveCmd starts the leaderboard service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the leaderboard service",
	Long: `Start the leaderboard service.

The server will:
  - Load configuration and connect to the remote store
  - Run an initial reload, then reload on every change notification
  - Serve the API, docs and websocket stream on the configured address

The server runs until interrupted (Ctrl+C) or receives SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("console", false, "human readable logs instead of JSON")
}

func runServe(cmd *cobra.Command, _ []string) error {
	console, _ := cmd.Flags().GetBool("console")
	initLog := logger.Init
	if console {
		initLog = logger.InitConsole
	}
	if err := initLog(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	authz, err := auth.NewBcrypt(cfg.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("invalid admin_password_hash: %w", err)
	}
	if !authz.Enabled() {
		log.Warn(ctx, "admin_password_hash not set; admin routes are disabled")
	}

	clock := clockwork.NewRealClock()
	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithConnector(service.PostgresConnector(cfg, log, clock)),
		service.WithWorkerCount(cfg.ReloadWorkers),
		service.WithQueueSize(cfg.ReloadQueueSize),
		service.WithDedupeSize(cfg.IdempotencyCacheSize),
		service.WithClock(clock),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	origins := cfg.AllowedOrigins()
	wsConfig := stream.DefaultConfig()
	wsConfig.CheckOrigin = originChecker(origins)
	hub := stream.NewHub(svc.Snapshots(), wsConfig,
		stream.WithLogger(log.Named("stream")),
		stream.WithClock(clock),
		stream.WithGate(svc.Degraded),
	)

	handler := api.NewRouter(ctx, api.NewServer(svc, authz), origins,
		hub.Mount,
		func(r chi.Router) { swagger.Register(ctx, r) },
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx, metrics.RefreshInterval())
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
		}
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// originChecker mirrors the CORS allow list for websocket upgrades.
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
