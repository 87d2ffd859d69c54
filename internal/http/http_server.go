package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/core/services/grading"
	"gitlab.com/quizcore-2025.net/internal/core/services/harness"
	"gitlab.com/quizcore-2025.net/internal/core/services/selection"
	"gitlab.com/quizcore-2025.net/internal/core/services/worker"
	"gitlab.com/quizcore-2025.net/internal/handlers"
	"gitlab.com/quizcore-2025.net/internal/handlers/assignments"
	"gitlab.com/quizcore-2025.net/internal/handlers/runs"
	"gitlab.com/quizcore-2025.net/internal/handlers/submissions"
	"gitlab.com/quizcore-2025.net/internal/handlers/workers"
	"gitlab.com/quizcore-2025.net/internal/sandbox"
)

type ServiceProvider struct {
	gradingService   grading.Service
	harnessService   harness.Service
	selectionService selection.Service
	workerService    worker.IWorkerStatusService
	quizRepo         secondary.QuizRepository
	gradingQueue     secondary.GradingQueue
	registry         *sandbox.Registry
}

func NewServiceProvider(
	gradingService grading.Service,
	harnessService harness.Service,
	selectionService selection.Service,
	workerService worker.IWorkerStatusService,
	quizRepo secondary.QuizRepository,
	gradingQueue secondary.GradingQueue,
	registry *sandbox.Registry,
) *ServiceProvider {
	return &ServiceProvider{
		gradingService:   gradingService,
		harnessService:   harnessService,
		selectionService: selectionService,
		workerService:    workerService,
		quizRepo:         quizRepo,
		gradingQueue:     gradingQueue,
		registry:         registry,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	middleware      *handlers.MiddlewareProvider
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, jwtCfg *config.JwtConfig, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		middleware:      handlers.New(jwtCfg),
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()

	submissionHandler := submissions.NewHandler(
		s.ServiceProvider.gradingService, s.ServiceProvider.gradingQueue, s.logger)
	runHandler := runs.NewHandler(
		s.ServiceProvider.harnessService, s.ServiceProvider.registry, s.logger)

	submissionHandler.Register(r)
	runHandler.Register(r)
	assignments.
		NewHandler(s.ServiceProvider.quizRepo, s.ServiceProvider.selectionService, s.logger).
		Register(r)

	// Operator routes require a bearer token.
	protected := r.NewRoute().Subrouter()
	protected.Use(s.middleware.JWTMiddleware)
	submissionHandler.RegisterProtected(protected)
	runHandler.RegisterProtected(protected)
	workers.NewHandler(s.ServiceProvider.workerService).RegisterProtected(protected)

	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
