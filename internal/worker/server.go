package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// Server runs the background task worker
type Server struct {
	logger *zap.Logger
	config *config.Config
	server *asynq.Server
	mux    *asynq.ServeMux
	client *asynq.Client
}

// Dependencies holds the services the workers need
type Dependencies struct {
	IntakeService *service.IntakeService
	ExportService *service.ExportService
}

// NewServer creates a new worker server
func NewServer(logger *zap.Logger, cfg *config.Config, deps *Dependencies) *Server {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	intakeWorker := NewIntakeWorker(logger, deps.IntakeService)
	exportWorker := NewExportWorker(logger, deps.ExportService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTraceIntake, intakeWorker.ProcessTask)
	mux.HandleFunc(TypeWorkshopExport, exportWorker.ProcessTask)

	return &Server{
		logger: logger,
		config: cfg,
		server: server,
		mux:    mux,
		client: asynq.NewClient(redisOpt),
	}
}

// Start runs the worker server until shutdown
func (s *Server) Start() error {
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)
	return s.server.Run(s.mux)
}

// Stop shuts the worker server down
func (s *Server) Stop() {
	s.server.Shutdown()
	s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal(fmt.Sprint(args...)) }
