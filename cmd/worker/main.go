package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
	pgrepo "github.com/evalworkshop/evalworkshop/api/internal/repository/postgres"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
	"github.com/evalworkshop/evalworkshop/api/internal/storage"
	"github.com/evalworkshop/evalworkshop/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer log.Sync()

	log.Info("starting worker service")

	// Initialize dependencies
	deps, cleanup, err := initWorkerDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer := worker.NewServer(log, cfg, deps)

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

// initWorkerDependencies initializes the services the task handlers need
func initWorkerDependencies(cfg *config.Config, log *zap.Logger) (*worker.Dependencies, func(), error) {
	ctx := context.Background()

	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	eventsDB, err := database.NewSQLX(cfg.Postgres)
	if err != nil {
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize event store: %w", err)
	}

	// Exports require the archive store; intake runs without it
	var archiveStore service.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		archive, err := storage.NewMinioStore(ctx, cfg.MinIO)
		if err != nil {
			log.Warn("failed to initialize MinIO, export tasks will fail", zap.Error(err))
		} else {
			archiveStore = archive
		}
	}

	workshopRepo := pgrepo.NewWorkshopRepository(pgDB)
	traceRepo := pgrepo.NewTraceRepository(pgDB)
	findingRepo := pgrepo.NewFindingRepository(pgDB)
	rubricRepo := pgrepo.NewRubricRepository(pgDB)
	annotationRepo := pgrepo.NewAnnotationRepository(pgDB)
	judgeRepo := pgrepo.NewJudgeRepository(pgDB)
	eventRepo := pgrepo.NewEventRepository(eventsDB)

	deps := &worker.Dependencies{
		IntakeService: service.NewIntakeService(cfg, workshopRepo, traceRepo, eventRepo),
		ExportService: service.NewExportService(
			workshopRepo,
			traceRepo,
			findingRepo,
			rubricRepo,
			annotationRepo,
			judgeRepo,
			eventRepo,
			archiveStore,
			cfg.MinIO.Bucket,
		),
	}

	cleanup := func() {
		eventsDB.Close()
		pgDB.Close()
	}

	return deps, cleanup, nil
}
