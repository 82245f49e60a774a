package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	ledgerapp "github.com/edudesk/backend/internal/application/ledger"
	"github.com/edudesk/backend/internal/infrastructure/cache"
	"github.com/edudesk/backend/internal/infrastructure/config"
	"github.com/edudesk/backend/internal/infrastructure/event"
	"github.com/edudesk/backend/internal/infrastructure/logger"
	"github.com/edudesk/backend/internal/infrastructure/persistence"
	"github.com/edudesk/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting EduDesk fee ledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Summary cache: redis when reachable, in-memory otherwise
	var summaryCache cache.SummaryCache
	redisCache, err := cache.NewRedisSummaryCache(&cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory summary cache", zap.Error(err))
		summaryCache = cache.NewInMemorySummaryCache()
	} else {
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		summaryCache = redisCache
		log.Info("Redis summary cache connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Event bus with the default activity-trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingEventHandler(log))

	// The write and read services are consumed in-process by the host
	// application; this daemon only drives the scheduled sweep.
	uow := persistence.NewGormUnitOfWork(db.DB)
	obligationService := ledgerapp.NewObligationService(uow, eventBus, summaryCache, log, cfg.Ledger)

	// Daily due date sweep
	sweeper := scheduler.NewDueDateSweeper(
		persistence.NewGormSweepSource(db.DB),
		obligationService,
		scheduler.DefaultDueDateSweeperConfig(),
		log,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)
	defer sweeper.Stop()

	log.Info("Fee ledger engine ready")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down", zap.String("signal", sig.String()))
}
