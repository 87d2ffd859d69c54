package worker

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// IWorkerStatusService exposes the grading pool's heartbeat records for
// operator diagnostics.
type IWorkerStatusService interface {
	// GetAllWorkers lists every worker with a live heartbeat record,
	// annotated with whether it heartbeat recently enough to count as
	// active.
	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)

	// GetWorker returns one worker record, nil when unknown.
	GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error)
}
