package secondary

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

type ShuffleRepository interface {
	// SaveAssignment persists an assignment. The write is first-writer-wins:
	// an existing (studentID, quizID) row is never overwritten, since the
	// assignment is deterministically reproducible anyway.
	SaveAssignment(ctx context.Context, assignment *domain.ShuffleAssignment) error

	// GetAssignment retrieves a stored assignment; (nil, nil) when absent.
	GetAssignment(ctx context.Context, studentID, quizID string) (*domain.ShuffleAssignment, error)
}
