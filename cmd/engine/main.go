package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/reports/engine/internal/api"
	"github.com/reports/engine/internal/backfill"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/events"
	"github.com/reports/engine/internal/infra/persistence/backfillrepo"
	"github.com/reports/engine/internal/infra/persistence/executionrepo"
	"github.com/reports/engine/internal/infra/persistence/reportrepo"
	"github.com/reports/engine/internal/infra/persistence/schedulerepo"
	"github.com/reports/engine/internal/orm"
	"github.com/reports/engine/internal/scheduler"
	"github.com/reports/engine/internal/service"
	"github.com/reports/engine/internal/tracker"
	"github.com/reports/engine/internal/warehouse"
	"github.com/reports/engine/pkg/config"
	"github.com/reports/engine/pkg/logger"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	options := idgen.NewIdGeneratorOptions(1)
	options.BaseTime = 1755937966000
	options.WorkerIdBitLength = 6
	idgen.SetIdGenerator(options)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting report execution engine",
		zap.String("warehouse", cfg.Warehouse.BaseURL),
		zap.String("tenant", cfg.Warehouse.Tenant))

	db, err := orm.New(orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	reportRepo := reportrepo.NewMysqlRepositoryImpl(db.DB())
	executionRepo := executionrepo.NewMysqlRepositoryImpl(db.DB())
	scheduleRepo := schedulerepo.NewMysqlRepositoryImpl(db.DB())
	backfillRepo := backfillrepo.NewMysqlRepositoryImpl(db.DB())

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	bus := events.NewBus(rdb, zapLogger)

	permits := warehouse.NewPermitPool(cfg.Warehouse.MaxConcurrent)
	warehouseClient := warehouse.NewClient(warehouse.ClientConfig{
		BaseURL:        cfg.Warehouse.BaseURL,
		Tenant:         cfg.Warehouse.Tenant,
		RequestTimeout: cfg.Warehouse.RequestTimeout,
	}, zapLogger)

	dispatcher := dispatch.NewDispatcher(executionRepo, warehouseClient, permits, bus, zapLogger)

	statusTracker := tracker.NewTracker(executionRepo, warehouseClient, dispatcher, bus, cfg.Tracker.PollInterval, zapLogger)

	executor := scheduler.NewExecutor(scheduler.Config{
		TickInterval:     cfg.Scheduler.TickInterval,
		PauseThreshold:   cfg.Scheduler.PauseThreshold,
		ReportingLagDays: cfg.Warehouse.ReportingLagDays,
	}, scheduleRepo, reportRepo, executionRepo, dispatcher, zapLogger)

	orchestrator := backfill.NewOrchestrator(backfill.Config{
		Workers:          cfg.Backfill.Workers,
		QueueSize:        cfg.Backfill.QueueSize,
		MaxLookbackDays:  cfg.Warehouse.MaxLookbackDays,
		ReportingLagDays: cfg.Warehouse.ReportingLagDays,
	}, backfillRepo, reportRepo, executionRepo, dispatcher, zapLogger)

	// Terminal events close the loop: the executor counts remote
	// failures toward auto-pause, the orchestrator settles segments.
	bus.Subscribe(func(ev events.ExecutionEvent) {
		executor.OnExecutionTerminal(ev.ExecutionID, ev.Status)
		orchestrator.OnExecutionTerminal(ev.ExecutionID, ev.Status)
	})

	statusTracker.Start()
	executor.Start()
	orchestrator.Start()

	reportService := service.NewReportService(reportRepo, dispatcher, zapLogger)
	scheduleService := service.NewScheduleService(scheduleRepo, reportRepo, zapLogger)
	executionService := service.NewExecutionService(executionRepo, dispatcher, zapLogger)
	backfillService := service.NewBackfillService(orchestrator, backfillRepo, zapLogger)

	router := api.NewRouter(reportService, scheduleService, executionService, backfillService)

	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router.SetupRoutes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server",
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}

	orchestrator.Stop()
	executor.Stop()
	statusTracker.Stop()

	zapLogger.Info("Shutdown complete")
}
