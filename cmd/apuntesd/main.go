// Apuntes server
//
// Features:
// - Google Drive proxy (server-held API key, folder allowlist)
// - Career ranking generation (discovery, recursive walk, scoring)
// - Weekly refresh schedule with snapshot persistence
// - SSE progress events
// - Prometheus metrics & structured logging (zap)
// - Multi-backend snapshot store (file, SQLite, PostgreSQL, S3, memory)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/api"
	"github.com/NegroHm/uda-apuntes/internal/config"
	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/events"
	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/metrics"
	"github.com/NegroHm/uda-apuntes/internal/ranking"
	"github.com/NegroHm/uda-apuntes/internal/snapshot"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("Apuntes server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("snapshot_backend", cfg.SnapshotBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize snapshot store
	store, err := snapshot.NewStoreFromConfig(ctx, cfg)
	if err != nil {
		logging.Fatal("snapshot store init failed", zap.Error(err))
	}
	defer store.Close()

	// Initialize Drive client
	driveClient := drive.New(drive.Config{
		BaseURL:  cfg.DriveBaseURL,
		APIKey:   cfg.GoogleAPIKey,
		Timeout:  cfg.DriveTimeout,
		QPS:      cfg.DriveQPS,
		PageSize: cfg.DrivePageSize,
	})

	// Initialize SSE broadcaster
	broadcaster := events.NewBroadcaster()

	// Initialize ranking orchestrator
	orch := ranking.NewOrchestrator(driveClient, store, broadcaster, ranking.Config{
		RootFolderID:      cfg.DriveRootFolderID,
		TopN:              cfg.TopN,
		CareerConcurrency: cfg.CareerConcurrency,
		WalkerConcurrency: cfg.WalkerConcurrency,
		MaxDepth:          cfg.WalkerMaxDepth,
		Weights:           ranking.DefaultWeights(),
	})

	// Resolve refresh schedule timezone
	loc, err := cfg.Location()
	if err != nil {
		logging.Fatal("invalid SCHEDULE_TZ", zap.String("tz", cfg.ScheduleTZ), zap.Error(err))
	}
	sched := snapshot.DefaultSchedule(loc)

	// Create API server
	srv := api.NewServer(driveClient, orch, broadcaster, sched, api.Config{
		RootFolderID: cfg.DriveRootFolderID,
		RefreshToken: cfg.RefreshToken,
	})

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		httpServer.Close()
		metricsServer.Close()
	}()

	// Refresh the ranking when the stored snapshot is stale, at startup and
	// then on a polling interval. Triggers overlap-safe: a pass already in
	// flight absorbs the request.
	go func() {
		refreshIfStale(ctx, orch, store, sched)

		ticker := time.NewTicker(cfg.ScheduleCheckEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshIfStale(ctx, orch, store, sched)
			}
		}
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}

func refreshIfStale(ctx context.Context, orch *ranking.Orchestrator, store ranking.Store, sched snapshot.Schedule) {
	var lastUpdate time.Time
	snap, err := store.Get(ctx)
	switch {
	case err == nil:
		lastUpdate = snap.LastUpdate
	case errors.Is(err, ranking.ErrNoSnapshot):
		// Zero lastUpdate, always stale.
	default:
		logging.Error("reading snapshot for staleness check failed", zap.Error(err))
		return
	}

	if !sched.IsStale(lastUpdate, time.Now()) {
		return
	}
	logging.Info("snapshot stale, triggering ranking pass",
		zap.Time("last_update", lastUpdate),
		zap.Time("next_refresh", sched.NextRefresh(time.Now())))
	orch.Trigger(ctx)
}
