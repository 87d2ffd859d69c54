package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

// activeThreshold is how stale a heartbeat may be before the worker is
// reported inactive. Records older than the repository TTL are gone
// entirely; this catches the window in between.
const activeThreshold = 2 * time.Minute

var _ IWorkerStatusService = &WorkerStatusService{}

type WorkerStatusService struct {
	workerRepo secondary.WorkerRepository
	logger     primary.Logger
}

func NewWorkerStatusService(workerRepo secondary.WorkerRepository, logger primary.Logger) *WorkerStatusService {
	return &WorkerStatusService{
		workerRepo: workerRepo,
		logger:     logger,
	}
}

func (s *WorkerStatusService) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	s.logger.Debug("Getting all workers")

	workers, err := s.workerRepo.GetAllWorkers(ctx)
	if err != nil {
		s.logger.Error("Failed to get all workers", "error", err)
		return nil, fmt.Errorf("failed to get all workers: %w", err)
	}

	heartbeatThreshold := time.Now().Add(-activeThreshold)
	for _, worker := range workers {
		worker.IsActive = worker.LastHeartbeat.After(heartbeatThreshold)
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })

	return workers, nil
}

func (s *WorkerStatusService) GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error) {
	worker, err := s.workerRepo.GetWorker(ctx, workerID)
	if err != nil {
		s.logger.Error("Failed to get worker", "workerId", workerID, "error", err)
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	if worker != nil {
		worker.IsActive = worker.LastHeartbeat.After(time.Now().Add(-activeThreshold))
	}
	return worker, nil
}
