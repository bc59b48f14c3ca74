package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/pacer-app/pacer/config"
	"github.com/pacer-app/pacer/internal/clock"
	"github.com/pacer-app/pacer/internal/email"
	"github.com/pacer-app/pacer/internal/feature"
	"github.com/pacer-app/pacer/internal/health"
	"github.com/pacer-app/pacer/internal/infrastructure/postgres"
	ctxlog "github.com/pacer-app/pacer/internal/log"
	"github.com/pacer-app/pacer/internal/metrics"
	"github.com/pacer-app/pacer/internal/reminder"
	"github.com/pacer-app/pacer/internal/schedule"
	"github.com/pacer-app/pacer/internal/session"
	httptransport "github.com/pacer-app/pacer/internal/transport/http"
	"github.com/pacer-app/pacer/internal/transport/http/handler"
	"github.com/pacer-app/pacer/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	settings := schedule.Settings{
		Warmup:          cfg.Warmup(),
		WarmupMode:      schedule.WarmupMode(cfg.WarmupMode),
		MaxRenderHeight: cfg.MaxRenderHeight,
	}
	registry := feature.Builtin()

	// Documents
	documentRepo := postgres.NewDocumentRepository(pool, logger)
	documentUsecase := usecase.NewDocumentUsecase(documentRepo)
	documentHandler := handler.NewDocumentHandler(documentUsecase, settings, registry, logger)

	// Live sessions
	manager := session.NewManager(clock.WallClock{}, cfg.TickPeriod(), settings, registry, logger)
	sessionHandler := handler.NewSessionHandler(manager, documentUsecase, logger)

	reaper := session.NewReaper(
		manager,
		time.Duration(cfg.ReapIntervalSec)*time.Second,
		time.Duration(cfg.SessionIdleTimeoutSec)*time.Second,
		logger,
	)
	go reaper.Start(ctx)

	// Reminders
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	dispatcher := reminder.NewDispatcher(documentRepo, sender, logger, time.Duration(cfg.RemindIntervalSec)*time.Second)
	go dispatcher.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, documentHandler, sessionHandler, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
