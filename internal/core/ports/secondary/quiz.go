package secondary

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// QuizRepository loads published quiz documents. Quizzes are read-only
// during grading.
type QuizRepository interface {
	// GetQuiz retrieves a quiz with its questions and test cases.
	// Returns (nil, nil) when the quiz does not exist.
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}
