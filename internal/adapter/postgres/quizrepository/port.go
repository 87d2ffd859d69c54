// package quizrepository loads quiz documents from PostgreSQL.
package quizrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

// QuizRepository implements the QuizRepository port with PostgreSQL.
// Questions are stored as a JSONB document per quiz; the storage schema
// carries the answer key and test cases, which the domain type hides
// from API serialization.
type QuizRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewQuizRepository(db *sqlx.DB, logger primary.Logger) *QuizRepository {
	return &QuizRepository{db: db, logger: logger}
}

var _ secondary.QuizRepository = (*QuizRepository)(nil)

type testCaseDoc struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

type questionDoc struct {
	ID                 string        `json:"id"`
	Type               string        `json:"type"`
	Points             int           `json:"points"`
	Options            []string      `json:"options,omitempty"`
	CorrectAnswerIndex int           `json:"correctAnswerIndex"`
	LanguageID         string        `json:"languageId,omitempty"`
	TestCases          []testCaseDoc `json:"testCases,omitempty"`
}

type poolDoc struct {
	Enabled bool           `json:"enabled"`
	Counts  map[string]int `json:"counts,omitempty"`
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	query := `
		SELECT id, title, questions, pool, shuffle_questions, shuffle_options
		FROM quizzes
		WHERE id = $1
	`

	var (
		quiz          domain.Quiz
		questionsJSON []byte
		poolJSON      []byte
	)
	err := r.db.QueryRowContext(ctx, query, quizID).Scan(
		&quiz.ID,
		&quiz.Title,
		&questionsJSON,
		&poolJSON,
		&quiz.ShuffleQuestions,
		&quiz.ShuffleOptions,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get quiz", "quizID", quizID, "error", err)
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	var docs []questionDoc
	if err := json.Unmarshal(questionsJSON, &docs); err != nil {
		r.logger.Error("Failed to unmarshal quiz questions", "quizID", quizID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal quiz questions: %w", err)
	}
	quiz.Questions = make([]domain.Question, len(docs))
	for i, doc := range docs {
		quiz.Questions[i] = doc.toDomain()
	}

	if len(poolJSON) > 0 {
		var pool poolDoc
		if err := json.Unmarshal(poolJSON, &pool); err != nil {
			r.logger.Error("Failed to unmarshal quiz pool config", "quizID", quizID, "error", err)
			return nil, fmt.Errorf("failed to unmarshal quiz pool config: %w", err)
		}
		quiz.Pool = pool.toDomain()
	}

	return &quiz, nil
}

func (d questionDoc) toDomain() domain.Question {
	q := domain.Question{
		ID:                 d.ID,
		Type:               domain.QuestionType(d.Type),
		Points:             d.Points,
		Options:            d.Options,
		CorrectAnswerIndex: d.CorrectAnswerIndex,
		LanguageID:         d.LanguageID,
	}
	if len(d.TestCases) > 0 {
		q.TestCases = make([]domain.TestCase, len(d.TestCases))
		for i, tc := range d.TestCases {
			q.TestCases[i] = domain.TestCase{
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				IsHidden:       tc.IsHidden,
			}
		}
	}
	return q
}

func (d poolDoc) toDomain() domain.PoolConfig {
	pool := domain.PoolConfig{Enabled: d.Enabled}
	if len(d.Counts) > 0 {
		pool.Counts = make(map[domain.QuestionType]int, len(d.Counts))
		for qType, count := range d.Counts {
			pool.Counts[domain.QuestionType(qType)] = count
		}
	}
	return pool
}
