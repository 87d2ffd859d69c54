package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/quizcore-2025.net/internal/adapter/logging"
	"gitlab.com/quizcore-2025.net/internal/adapter/postgres/quizrepository"
	"gitlab.com/quizcore-2025.net/internal/adapter/postgres/shufflerepository"
	"gitlab.com/quizcore-2025.net/internal/adapter/postgres/submissionrepository"
	"gitlab.com/quizcore-2025.net/internal/adapter/redis/workerport"
	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/core/services/grading"
	"gitlab.com/quizcore-2025.net/internal/core/services/harness"
	"gitlab.com/quizcore-2025.net/internal/core/services/selection"
	"gitlab.com/quizcore-2025.net/internal/core/services/worker"
	logger2 "gitlab.com/quizcore-2025.net/internal/global/logger"
	http2 "gitlab.com/quizcore-2025.net/internal/http"
	"gitlab.com/quizcore-2025.net/internal/queue"
	"gitlab.com/quizcore-2025.net/internal/sandbox"
)

func main() {
	InitReader()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sysCfg := config.NewSystemConfig()

	logger := logger2.Logger
	if sysCfg.DebugMode {
		logger = logging.NewDevelopmentLogger()
	}
	logger.Info("Starting quiz grading service")

	db, err := setupDatabase(sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	// SECONDARY PORTS
	quizRepo := quizrepository.NewQuizRepository(db, logger)
	submissionRepo := submissionrepository.NewSubmissionRepository(db, logger)
	shuffleRepo := shufflerepository.NewShuffleRepository(db, logger)
	workerPort := workerport.NewWorkerRepository(redisClient, logger)

	registry, err := setupRegistry(sysCfg.SandboxConfig)
	if err != nil {
		logger.Error("Failed to load language registry", "error", err)
		os.Exit(1)
	}
	executor, err := sandbox.NewExecutor(sysCfg.SandboxConfig, logger)
	if err != nil {
		logger.Error("Failed to connect to Docker", "error", err)
		os.Exit(1)
	}

	// services
	selectionSvc := selection.NewService(shuffleRepo, logger)
	harnessSvc := harness.NewService(registry, executor, logger)
	queueClient := queue.NewClient(redisClient, sysCfg.GradingConfig, logger)
	gradingSvc := grading.NewService(quizRepo, submissionRepo, queueClient, selectionSvc, harnessSvc, logger)
	workerSvc := worker.NewWorkerStatusService(workerPort, logger)

	// grading pool
	pool := queue.NewPool(queueClient, &gradingHandler{svc: gradingSvc}, workerPort, sysCfg.GradingConfig, logger)
	ctxBg := context.Background()
	pool.Start(ctxBg)

	// server
	serviceProvider := http2.NewServiceProvider(
		gradingSvc, harnessSvc, selectionSvc, workerSvc, quizRepo, queueClient, registry)
	httpServer := http2.NewServer(sysCfg.HTTPPort, "quizGrading", *serviceProvider, sysCfg.JwtConfig, logger)
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to init HTTP server", "error", err)
		os.Exit(1)
	}
	httpServer.Start(ctxBg)

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctxBg, 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	pool.Stop()

	logger.Info("successfully shutdown server")
}

// gradingHandler adapts the grading service to the queue's handler
// contract.
type gradingHandler struct {
	svc grading.Service
}

func (h *gradingHandler) Handle(ctx context.Context, submissionID uuid.UUID) error {
	return h.svc.GradeSubmission(ctx, submissionID)
}

func (h *gradingHandler) OnExhausted(ctx context.Context, submissionID uuid.UUID, reason string) {
	if err := h.svc.MarkFailed(ctx, submissionID, reason); err != nil {
		logger2.Error("Failed to mark submission failed", "submissionID", submissionID, "error", err)
	}
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func setupRegistry(cfg *config.SandboxConfig) (*sandbox.Registry, error) {
	if cfg.LanguagesFile == "" {
		return sandbox.NewRegistry(), nil
	}
	return sandbox.NewRegistryFromFile(cfg.LanguagesFile)
}

// InitReader loads the env file named by the first argument; without an
// argument the process relies on the ambient environment.
func InitReader() {
	if len(os.Args) < 2 {
		return
	}
	environment := os.Args[1]
	if err := godotenv.Load(environment + ".env"); err != nil {
		logger2.Warn("No env file loaded", "env", environment, "error", err)
	}
}
