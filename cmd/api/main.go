// Package main is the entry point for the trip tracker API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/trip-tracker/internal/config"
	"github.com/pkordes/trip-tracker/internal/fetch"
	"github.com/pkordes/trip-tracker/internal/handler"
	"github.com/pkordes/trip-tracker/internal/metrics"
	"github.com/pkordes/trip-tracker/internal/middleware"
	"github.com/pkordes/trip-tracker/internal/notify"
	"github.com/pkordes/trip-tracker/internal/repo"
	"github.com/pkordes/trip-tracker/internal/service"
	"github.com/pkordes/trip-tracker/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	collector := metrics.NewCollector()

	// --- Report storage ---------------------------------------------------
	blobs, closeBlobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open report store", "backend", cfg.ReportStore, "error", err)
		os.Exit(1)
	}
	defer closeBlobs()

	// --- Badge notifiers --------------------------------------------------
	// The log notifier and the metrics gauge always run; NATS joins when configured.
	notifiers := []notify.BadgeNotifier{notify.NewLogNotifier(logger), collector}
	if cfg.NATSURL != "" {
		nc, err := notify.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer func() { _ = nc.Drain() }()
		notifiers = append(notifiers, notify.NewNATSNotifier(nc, cfg.BadgeSubject, collector))
		logger.Info("badge publishing enabled", "subject", cfg.BadgeSubject)
	}

	// --- Stores -----------------------------------------------------------
	client := fetch.NewClient(
		fetch.Config{TripsURL: cfg.TripsURL, StopsURL: cfg.StopsURL},
		fetch.WithLogger(logger),
		fetch.WithRecorder(collector),
	)
	trips := service.NewTripStore(client, logger)
	reports := service.NewReportStore(ctx, blobs, notify.Fanout(notifiers...), logger)

	// A failed first load is not fatal: the error is in the view state and a
	// client can retry through POST /trips/refresh.
	if err := trips.RefreshTrips(ctx); err != nil {
		logger.Warn("initial trip load failed", "error", err)
	}
	if err := trips.RefreshStops(ctx); err != nil {
		logger.Warn("initial stop load failed", "error", err)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → MaxBodySize.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(trips, reports,
		handler.WithMetrics(collector.Handler()),
		handler.WithLocation(time.Local),
		handler.WithLogger(logger),
	)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "report_store", cfg.ReportStore)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openBlobStore builds the report backend named by cfg.ReportStore and returns
// a func releasing its connections.
func openBlobStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.BlobStore, func(), error) {
	switch cfg.ReportStore {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}

		db := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connection established", "migrations_applied", n)
		return repo.NewPGBlobStore(pool), pool.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("redis connection established", "addr", cfg.RedisAddr)
		return repo.NewRedisBlobStore(client, repo.DefaultRedisPrefix), func() { _ = client.Close() }, nil

	default:
		return repo.NewMemoryBlobStore(), func() {}, nil
	}
}
