package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/allocator"
	httptransport "github.com/spec-kit/parking-service/internal/api/http"
	"github.com/spec-kit/parking-service/internal/api/http/handlers"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	"github.com/spec-kit/parking-service/internal/service"
	"github.com/spec-kit/parking-service/internal/worker"
)

const (
	occupancyReportInterval = time.Minute
	shutdownTimeout         = 10 * time.Second
	staleSessionScanLimit   = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry, err := observability.NewTelemetry(ctx, cfg.Telemetry, cfg.App.Version)
	if err != nil {
		logger.Fatal("failed to init telemetry", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	sessionRepo := repository.NewNopParkingSessionRepository()
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		sessionRepo = repository.NewParkingSessionRepository(pg.PoolHandle())
		reportStaleSessions(ctx, sessionRepo, logger)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	base, err := allocator.NewSlotAllocator(cfg.Parking.Tier1Capacity, cfg.Parking.Tier2Capacity)
	if err != nil {
		logger.Fatal("failed to build allocator", zap.Error(err))
	}
	slots, err := allocator.NewInstrumentedAllocator(base, telemetry.Tracer(), telemetry.Meter())
	if err != nil {
		logger.Fatal("failed to instrument allocator", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var publisher events.EventHandler
	if redis.Enabled() {
		publisher = events.NewRedisPublisher(redis.Client, cfg.Redis.EventsChannel).Handle
	}
	service.NewNotificationService(dispatcher, logger, publisher).RegisterHandlers()

	parkingService := service.NewParkingService(service.ParkingDependencies{
		Allocator:   slots,
		SessionRepo: sessionRepo,
		Dispatcher:  dispatcher,
		Observer:    metrics,
		Logger:      logger,
	})

	reporter := worker.NewOccupancyReporter(slots, metrics.ObserveTiers, logger, occupancyReportInterval)
	go reporter.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version).
		WithDependency("postgres", pg, persistence.ErrPostgresDisabled).
		WithDependency("redis", redis, persistence.ErrRedisDisabled)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Parking: handlers.NewParkingHandler(parkingService),
		Metrics: metrics.Registry(),
	})

	go func() {
		logger.Info("parking service listening",
			zap.String("addr", cfg.App.Addr()),
			zap.Int("tier1_capacity", cfg.Parking.Tier1Capacity),
			zap.Int("tier2_capacity", cfg.Parking.Tier2Capacity))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

// reportStaleSessions warns about audit rows left open by a previous process.
// Slots always start free; the rows are not replayed.
func reportStaleSessions(ctx context.Context, repo repository.ParkingSessionRepository, logger *zap.Logger) {
	open, err := repo.ListOpen(ctx, staleSessionScanLimit)
	if err != nil {
		logger.Warn("failed to list open parking sessions", zap.Error(err))
		return
	}
	if len(open) > 0 {
		logger.Warn("parking sessions left open by a previous run",
			zap.Int("count", len(open)),
			zap.String("first_token", string(open[0].Token)))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
