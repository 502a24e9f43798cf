package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/handler"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
	pgrepo "github.com/evalworkshop/evalworkshop/api/internal/repository/postgres"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
	"github.com/evalworkshop/evalworkshop/api/internal/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// Database connections
	Postgres *database.PostgresDB
	EventsDB *sqlx.DB
	Redis    *redis.Client
	Archive  *storage.MinioStore

	// Repositories
	WorkshopRepo   *pgrepo.WorkshopRepository
	TraceRepo      *pgrepo.TraceRepository
	FindingRepo    *pgrepo.FindingRepository
	RubricRepo     *pgrepo.RubricRepository
	AnnotationRepo *pgrepo.AnnotationRepository
	UserRepo       *pgrepo.UserRepository
	JudgeRepo      *pgrepo.JudgeRepository
	EventRepo      *pgrepo.EventRepository

	// Services
	RealtimeService   *service.RealtimeService
	WorkshopService   *service.WorkshopService
	AuthService       *service.AuthService
	PhaseService      *service.PhaseService
	TraceService      *service.TraceService
	FindingService    *service.FindingService
	RubricService     *service.RubricService
	AnnotationService *service.AnnotationService
	IRRService        *service.IRRService
	JudgeService      *service.JudgeService
	IntakeService     *service.IntakeService
	ExportService     *service.ExportService

	// Handlers
	HealthHandler      *handler.HealthHandler
	AuthHandler        *handler.AuthHandler
	WorkshopsHandler   *handler.WorkshopsHandler
	PhasesHandler      *handler.PhasesHandler
	TracesHandler      *handler.TracesHandler
	FindingsHandler    *handler.FindingsHandler
	RubricsHandler     *handler.RubricsHandler
	AnnotationsHandler *handler.AnnotationsHandler
	ResultsHandler     *handler.ResultsHandler
	JudgeHandler       *handler.JudgeHandler
	IntakeHandler      *handler.IntakeHandler
	ExportHandler      *handler.ExportHandler
	EventsHandler      *handler.EventsHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware

	// Asynq client for enqueuing background tasks
	AsynqClient *asynq.Client
}

// initDependencies initializes all dependencies
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	// Initialize PostgreSQL using database wrapper
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	deps.Postgres = pgDB

	// The event log uses sqlx over the same database
	eventsDB, err := database.NewSQLX(cfg.Postgres)
	if err != nil {
		pgDB.Close()
		return nil, fmt.Errorf("failed to initialize event store: %w", err)
	}
	deps.EventsDB = eventsDB

	// Initialize Redis
	redisClient, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	deps.Redis = redisClient

	// Initialize the archive store. Exports stay queued-only without it.
	if cfg.MinIO.Endpoint != "" {
		archive, err := storage.NewMinioStore(ctx, cfg.MinIO)
		if err != nil {
			logger.Warn("failed to initialize MinIO, inline export will be unavailable", zap.Error(err))
		} else {
			deps.Archive = archive
		}
	}

	// Initialize repositories
	deps.WorkshopRepo = pgrepo.NewWorkshopRepository(pgDB)
	deps.TraceRepo = pgrepo.NewTraceRepository(pgDB)
	deps.FindingRepo = pgrepo.NewFindingRepository(pgDB)
	deps.RubricRepo = pgrepo.NewRubricRepository(pgDB)
	deps.AnnotationRepo = pgrepo.NewAnnotationRepository(pgDB)
	deps.UserRepo = pgrepo.NewUserRepository(pgDB)
	deps.JudgeRepo = pgrepo.NewJudgeRepository(pgDB)
	deps.EventRepo = pgrepo.NewEventRepository(eventsDB)

	// Initialize Asynq client
	deps.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize services
	deps.RealtimeService = service.NewRealtimeService()
	deps.WorkshopService = service.NewWorkshopService(
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.UserRepo,
	)
	deps.AuthService = service.NewAuthService(
		cfg,
		deps.UserRepo,
		deps.WorkshopRepo,
	)
	deps.PhaseService = service.NewPhaseService(
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.FindingRepo,
		deps.RubricRepo,
		deps.AnnotationRepo,
		deps.EventRepo,
		deps.RealtimeService,
		cfg.Sampling.Seed,
	)
	deps.TraceService = service.NewTraceService(
		deps.WorkshopRepo,
		deps.TraceRepo,
	)
	deps.FindingService = service.NewFindingService(
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.FindingRepo,
		deps.EventRepo,
		deps.RealtimeService,
	)
	deps.RubricService = service.NewRubricService(
		deps.WorkshopRepo,
		deps.RubricRepo,
		deps.EventRepo,
		deps.RealtimeService,
	)
	deps.AnnotationService = service.NewAnnotationService(
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.RubricRepo,
		deps.AnnotationRepo,
		deps.EventRepo,
		deps.RealtimeService,
	)
	deps.IRRService = service.NewIRRService(
		deps.WorkshopRepo,
		deps.AnnotationRepo,
	)
	deps.JudgeService = service.NewJudgeService(
		deps.JudgeRepo,
		deps.TraceRepo,
		deps.AnnotationRepo,
		deps.WorkshopRepo,
		cfg.Sampling.Seed,
	)
	deps.IntakeService = service.NewIntakeService(
		cfg,
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.EventRepo,
	)

	var archiveStore service.ObjectStore
	if deps.Archive != nil {
		archiveStore = deps.Archive
	}
	deps.ExportService = service.NewExportService(
		deps.WorkshopRepo,
		deps.TraceRepo,
		deps.FindingRepo,
		deps.RubricRepo,
		deps.AnnotationRepo,
		deps.JudgeRepo,
		deps.EventRepo,
		archiveStore,
		cfg.MinIO.Bucket,
	)

	// Initialize middleware
	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.AuthService)

	// Initialize handlers
	deps.HealthHandler = handler.NewHealthHandler(pgDB.Pool, redisClient, appVersion)
	deps.AuthHandler = handler.NewAuthHandler(deps.AuthService, logger)
	deps.WorkshopsHandler = handler.NewWorkshopsHandler(deps.WorkshopService, logger)
	deps.PhasesHandler = handler.NewPhasesHandler(deps.PhaseService, logger)
	deps.TracesHandler = handler.NewTracesHandler(deps.TraceService, logger)
	deps.FindingsHandler = handler.NewFindingsHandler(deps.FindingService, logger)
	deps.RubricsHandler = handler.NewRubricsHandler(deps.RubricService, logger)
	deps.AnnotationsHandler = handler.NewAnnotationsHandler(deps.AnnotationService, logger)
	deps.ResultsHandler = handler.NewResultsHandler(deps.IRRService, logger)
	deps.JudgeHandler = handler.NewJudgeHandler(deps.JudgeService, logger)
	deps.IntakeHandler = handler.NewIntakeHandler(deps.IntakeService, deps.AsynqClient, logger)
	deps.ExportHandler = handler.NewExportHandler(deps.ExportService, deps.AsynqClient, logger)
	deps.EventsHandler = handler.NewEventsHandler(deps.RealtimeService, deps.EventRepo, logger)

	return deps, nil
}

// Close closes all connections
func (d *Dependencies) Close() {
	if d.AsynqClient != nil {
		d.AsynqClient.Close()
	}
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.EventsDB != nil {
		d.EventsDB.Close()
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}
