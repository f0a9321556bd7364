package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"crptapi/internal/config"
	"crptapi/internal/crpt"
	"crptapi/internal/database"
	"crptapi/internal/database/migration"
	handlers "crptapi/internal/http/handler"
	"crptapi/internal/http/middleware"
	"crptapi/internal/logging"
	"crptapi/internal/metrics"
	"crptapi/internal/otel"
	"crptapi/internal/repository/postgres"
	"crptapi/internal/service"
	"crptapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title CRPT Document API
// @version 1.0
// @BasePath /
func main() {
	cfg := config.Load()

	logger, logCloser := logging.New(cfg.Logger)
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server_exited", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Logger.Validate(); err != nil {
		return err
	}

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return logging.ReplaceLogFatal(logger, "failed to connect to database", err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "close_database")

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		return err
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return logging.ReplaceLogFatal(logger, "failed to initialize object storage", err)
	}

	client, err := crpt.NewFromConfig(cfg.CRPT)
	if err != nil {
		return logging.ReplaceLogFatal(logger, "failed to initialize crpt client", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	subMetrics, err := metrics.NewSubmissions(reg)
	if err != nil {
		return err
	}
	client.ObserveWait(subMetrics.ObserveWait)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	repo := postgres.NewSubmissionPostgres(db)
	svc := service.NewSubmissionService(objStore, repo, client, subMetrics, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID(logger))
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())
	if cfg.HTTPRateLimit > 0 {
		app.Use(middleware.NewClientRateLimiter(cfg.HTTPRateLimit, "/health", "/healthz", "/metrics").Handler())
	}

	handlers.RegisterRoutes(app, db, svc, reg)
	handlers.RegisterSwagger(app, cfg.AppHost, cfg.AppScheme)

	go func() {
		<-ctx.Done()
		logger.Info("server_shutting_down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logging.LogError(logger, "server_shutdown_failed", err)
		}
	}()

	logger.Info("server_starting",
		slog.String("port", cfg.Port),
		slog.String("crpt_base_url", cfg.CRPT.BaseURL),
		slog.Int("crpt_request_limit", cfg.CRPT.RequestLimit),
		slog.String("crpt_time_unit", cfg.CRPT.TimeUnit),
	)
	return app.Listen(":" + cfg.Port)
}
