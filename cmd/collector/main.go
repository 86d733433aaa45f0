// Command collector runs the Tekvoro analytics collector: it ingests
// telemetry events from the website and serves the admin analytics views.
//
//	@title						Tekvoro Analytics Collector
//	@version					1.0
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/tekvoro/web-platform/docs"
	"github.com/tekvoro/web-platform/internal/api"
	"github.com/tekvoro/web-platform/internal/api/handler"
	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/service"
	"github.com/tekvoro/web-platform/internal/infrastructure/config"
	mongodb "github.com/tekvoro/web-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/tekvoro/web-platform/internal/infrastructure/db/redis"
	"github.com/tekvoro/web-platform/internal/infrastructure/queue"
	"github.com/tekvoro/web-platform/pkg/logger"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger is not configured yet
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  logger.PrettyFor(cfg.Env),
		Service: "collector",
	})
	log.Info().Str("version", version).Str("build_date", buildDate).Str("env", cfg.Env).Msg("starting")

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("collector stopped")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoConn, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoConn.Close(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	authRepo := mongodb.NewAuthRepository(mongoConn.Database())
	eventRepo := mongodb.NewEventRepository(mongoConn.Database())
	if err := authRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	visitors := redisdb.NewVisitorCounter(rdb)

	// --- Services ---
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)
	if cfg.Admin.Password != "" {
		if err := authService.EnsureUser(ctx, cfg.Admin.Username, cfg.Admin.Password, domain.RoleAdmin); err != nil {
			return err
		}
	}
	analyticsService := service.NewAnalyticsService(eventRepo, visitors, logger.Component("analytics"))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.QueueWorkers, analyticsService, logger.Component("queue"))
	dispatcher.Start(workerCtx)

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Analytics: analyticsService,
		Queue:     dispatcher,
		Readiness: []handler.Dependency{
			{Name: "mongodb", Ping: mongoConn.Ping},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		JWTSecret:      cfg.JWTSecret,
		AllowOrigins:   cfg.AllowOrigins,
		TrackRateLimit: cfg.TrackRateLimit,
		Log:            logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	if err := dispatcher.Stop(sctx); err != nil {
		log.Warn().Err(err).Msg("queued events dropped on shutdown")
	}
	return nil
}
