package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/employee-directory/internal/api/http"
	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/persistence"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/seed"
	"github.com/spec-kit/employee-directory/internal/service"
	"github.com/spec-kit/employee-directory/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := persistence.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store backend", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.Close() //nolint:errcheck

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, cfg.Audit))

	seedSource := seed.New(cfg.Seed)
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		Repo:       repository.NewEmployeeRepository(backend.Store, cfg.Store.Key),
		Seed:       seedSource,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		SortLocale: cfg.App.SortLocale,
	})

	source := directory.Hydrate(ctx)
	logger.Info("directory ready",
		zap.String("backend", backend.Name),
		zap.String("hydrated_from", string(source)),
		zap.String("seed", seedSource.Name()))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	seedFile := ""
	if cfg.Seed.URL == "" {
		if _, err := os.Stat(cfg.Seed.Path); err == nil {
			seedFile = cfg.Seed.Path
		}
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend.Name, directory),
		Employees: handlers.NewEmployeesHandler(directory),
		Metrics:   metrics,
		SeedFile:  seedFile,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()

	if err := directory.Persist(context.Background()); err != nil {
		logger.Warn("final flush failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
