package workerport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

const (
	workerKeyPrefix = "worker:"

	// Records expire a few heartbeats after a worker stops refreshing
	// them, so crashed workers fall out of listings on their own.
	workerExpiration = time.Minute
)

// WorkerRepository implements the WorkerRepository port with Redis.
type WorkerRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

func NewWorkerRepository(redisClient *redis.Client, logger primary.Logger) *WorkerRepository {
	return &WorkerRepository{redisClient: redisClient, logger: logger}
}

var _ secondary.WorkerRepository = (*WorkerRepository)(nil)

func (r *WorkerRepository) SaveWorker(ctx context.Context, worker *domain.WorkerInfo) error {
	workerJSON, err := json.Marshal(worker)
	if err != nil {
		r.logger.Error("Failed to marshal worker info", "error", err)
		return fmt.Errorf("failed to marshal worker info: %w", err)
	}

	workerKey := workerKeyPrefix + worker.ID
	if err := r.redisClient.Set(ctx, workerKey, workerJSON, workerExpiration).Err(); err != nil {
		r.logger.Error("Failed to save worker info", "workerId", worker.ID, "error", err)
		return fmt.Errorf("failed to save worker info: %w", err)
	}
	return nil
}

func (r *WorkerRepository) GetWorker(ctx context.Context, workerID string) (*domain.WorkerInfo, error) {
	workerJSON, err := r.redisClient.Get(ctx, workerKeyPrefix+workerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get worker info", "workerId", workerID, "error", err)
		return nil, fmt.Errorf("failed to get worker info: %w", err)
	}

	var worker domain.WorkerInfo
	if err := json.Unmarshal(workerJSON, &worker); err != nil {
		return nil, fmt.Errorf("failed to unmarshal worker info: %w", err)
	}
	return &worker, nil
}

// GetAllWorkers retrieves every live worker record, scanning rather than
// KEYS so a large keyspace does not block Redis.
func (r *WorkerRepository) GetAllWorkers(ctx context.Context) ([]*domain.WorkerInfo, error) {
	var (
		cursor     uint64
		workerKeys []string
		err        error
	)
	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, workerKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker keys: %w", err)
		}
		workerKeys = append(workerKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	workers := make([]*domain.WorkerInfo, 0, len(workerKeys))
	if len(workerKeys) == 0 {
		return workers, nil
	}

	workerData, err := r.redisClient.MGet(ctx, workerKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve worker data: %w", err)
	}
	for _, data := range workerData {
		raw, ok := data.(string)
		if !ok {
			// Key expired between SCAN and MGET.
			continue
		}
		var worker domain.WorkerInfo
		if err := json.Unmarshal([]byte(raw), &worker); err != nil {
			r.logger.Warn("Dropping unreadable worker record", "error", err)
			continue
		}
		workers = append(workers, &worker)
	}
	return workers, nil
}
