package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/database"
	"github.com/stemsi/quizboard-backend/internal/handler"
	"github.com/stemsi/quizboard-backend/internal/logger"
	"github.com/stemsi/quizboard-backend/internal/metrics"
	"github.com/stemsi/quizboard-backend/internal/middleware"
	"github.com/stemsi/quizboard-backend/internal/notifier"
	"github.com/stemsi/quizboard-backend/internal/repository"
	"github.com/stemsi/quizboard-backend/internal/router"
	"github.com/stemsi/quizboard-backend/internal/service"
	"github.com/stemsi/quizboard-backend/internal/validator"
	ws "github.com/stemsi/quizboard-backend/internal/websocket"
	"github.com/stemsi/quizboard-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("fanout", cfg.ScoreboardFanout).
		Msg("Starting Quizboard Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Migrations ────────────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Realtime Fan-out ──────────────────────────────────────────────
	hub := ws.NewHub(cfg.WSSendBuffer, collector, log)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	relayDone := make(chan struct{})

	var scoreNotifier service.ScoreNotifier = hub
	if cfg.ScoreboardFanout == config.FanoutRedis {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		scoreNotifier = notifier.NewRedisNotifier(rdb)

		relay := worker.NewScoreboardRelay(rdb, hub, log)
		go func() {
			defer close(relayDone)
			relay.Start(workerCtx)
		}()
	} else {
		close(relayDone)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, collector, log)
	quizService := service.NewQuizService(userRepo, questionRepo, scoreNotifier, collector, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService, log),
		Quiz: handler.NewQuizHandler(quizService, log),
		WS:   handler.NewWSHandler(hub, quizService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	var authLimiter *middleware.RateLimiter
	if cfg.AuthRatePerMinute > 0 {
		authLimiter = middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
		authLimiter.StartCleanup(workerCtx.Done())
	}

	r := router.SetupRouter(cfg, router.Deps{
		AuthService: authService,
		Metrics:     collector,
		Gatherer:    reg,
		AuthLimiter: authLimiter,
		Log:         log,
	}, handlers)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Hijacked WebSocket connections are not covered by Shutdown.
	hub.Close()

	// 3. Stop the relay and the limiter cleanup.
	workerCancel()
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Scoreboard relay did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
