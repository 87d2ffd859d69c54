package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// GradingQueue enqueues grading jobs and exposes their state for
// diagnostics. Job lifecycle is owned by the queue implementation.
type GradingQueue interface {
	Enqueue(ctx context.Context, submissionID uuid.UUID) error

	// Job returns the current job record for a submission; (nil, nil) when
	// the submission was never enqueued.
	Job(ctx context.Context, submissionID uuid.UUID) (*domain.GradingJob, error)

	// History returns the retained terminal jobs, most recent first
	// (capped at the last 10 completed and 5 failed).
	History(ctx context.Context) (completed, failed []domain.GradingJob, err error)
}
