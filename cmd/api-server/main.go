package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightsmile/clinic-scheduling/internal/api"
	"github.com/brightsmile/clinic-scheduling/internal/auth"
	"github.com/brightsmile/clinic-scheduling/internal/booking"
	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/config"
	"github.com/brightsmile/clinic-scheduling/internal/db"
	"github.com/brightsmile/clinic-scheduling/internal/notify"
	"github.com/brightsmile/clinic-scheduling/internal/observability/metrics"
	redisclient "github.com/brightsmile/clinic-scheduling/internal/redis"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.ClientConfig{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	catalogSvc := catalog.NewService(catalog.NewPgRepository(pgPool), logger)
	scheduleSvc := schedule.NewService(schedule.NewPgRepository(pgPool), catalogSvc, logger)

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		sender = notify.NewNoopSender(logger)
	}
	mailer := notify.NewBookingMailer(sender, cfg.PublicBaseURL, cfg.ConfirmTokenTTL, logger)

	tokens := redisclient.NewTokenStore(rdb, cfg.ConfirmTokenTTL)

	bookingSvc := booking.NewService(
		booking.NewPgRepository(pgPool),
		scheduleSvc,
		catalogSvc,
		mailer,
		tokens,
		bookingMetrics,
		booking.Caps{Guest: cfg.GuestAppointmentCap, Registered: cfg.RegisteredAppointmentCap},
		logger,
	)

	router := api.NewRouter(api.RouterConfig{
		Slots:    scheduleSvc,
		Bookings: bookingSvc,
		Catalog:  catalogSvc,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		log.Fatalf("http server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	logger.Info("api-server stopped")
}
