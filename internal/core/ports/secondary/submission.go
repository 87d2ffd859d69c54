package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

type SubmissionRepository interface {
	// SaveSubmission inserts or replaces a submission.
	SaveSubmission(ctx context.Context, submission *domain.Submission) error

	// GetSubmission retrieves a submission by ID; (nil, nil) when absent.
	GetSubmission(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// UpdateStatus transitions the student-visible submission status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubmissionStatus, message string) error

	// SaveGradingResult marks the submission completed and overwrites its
	// score and per-answer results. Overwriting keeps retried jobs
	// idempotent: re-grading never accumulates.
	SaveGradingResult(ctx context.Context, id uuid.UUID, score int, answers []domain.GradedAnswer) error
}
