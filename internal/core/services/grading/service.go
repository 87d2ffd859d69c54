package grading

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

var (
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoAnswers          = errors.New("submission has no answers")
)

// Service owns the submission lifecycle: accepting raw answers, scoring
// them asynchronously and exposing the graded outcome.
type Service interface {
	// Submit validates and persists a submission, enqueues it for grading
	// and returns it in the pending state.
	Submit(ctx context.Context, quizID, studentID string, answers []domain.Answer) (*domain.Submission, error)

	// GetSubmission returns a submission by id, ErrSubmissionNotFound when
	// it does not exist.
	GetSubmission(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// GradeSubmission scores one submission end to end and persists the
	// result. Errors wrapping queue.ErrTerminal must not be retried;
	// anything else is worth another attempt.
	GradeSubmission(ctx context.Context, submissionID uuid.UUID) error

	// MarkFailed transitions a submission to the error state after its
	// grading job exhausted all attempts.
	MarkFailed(ctx context.Context, submissionID uuid.UUID, reason string) error
}
