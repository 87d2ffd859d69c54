package secondary

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

type WorkerRepository interface {
	// SaveWorker saves a worker heartbeat record with a TTL; stale workers
	// disappear when their entry expires.
	SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error

	// GetWorker retrieves one worker record; (nil, nil) when absent.
	GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error)

	// GetAllWorkers retrieves every live worker record.
	GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error)
}
