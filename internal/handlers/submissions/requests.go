package submissions

import (
	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// CreateSubmissionRequest represents a request to submit quiz answers.
type CreateSubmissionRequest struct {
	QuizID    string          `json:"quizId"`
	StudentID string          `json:"studentId"`
	Answers   []domain.Answer `json:"answers"`
}

// CreateSubmissionResponse acknowledges an accepted submission.
type CreateSubmissionResponse struct {
	SubmissionID uuid.UUID               `json:"submissionId"`
	Status       domain.SubmissionStatus `json:"status"`
}
