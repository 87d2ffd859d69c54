// package submissionrepository persists submissions and their grading
// results in PostgreSQL.
package submissionrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

type SubmissionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewSubmissionRepository(db *sqlx.DB, logger primary.Logger) *SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

var _ secondary.SubmissionRepository = (*SubmissionRepository)(nil)

func (r *SubmissionRepository) SaveSubmission(ctx context.Context, submission *domain.Submission) error {
	answersJSON, err := json.Marshal(submission.Answers)
	if err != nil {
		r.logger.Error("Failed to marshal submission answers", "error", err)
		return fmt.Errorf("failed to marshal submission answers: %w", err)
	}

	query := `
		INSERT INTO submissions (
			id, quiz_id, student_id, answers, status, score,
			status_message, submitted_at, graded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			status_message = EXCLUDED.status_message,
			graded_at = EXCLUDED.graded_at
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		submission.ID,
		submission.QuizID,
		submission.StudentID,
		answersJSON,
		submission.Status,
		submission.Score,
		submission.StatusMessage,
		submission.SubmittedAt,
		submission.GradedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save submission", "submissionID", submission.ID, "error", err)
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `
		SELECT id, quiz_id, student_id, answers, status, score,
			   status_message, results, submitted_at, graded_at
		FROM submissions
		WHERE id = $1
	`

	var (
		submission  domain.Submission
		answersJSON []byte
		resultsJSON []byte
		message     sql.NullString
		gradedAt    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.QuizID,
		&submission.StudentID,
		&answersJSON,
		&submission.Status,
		&submission.Score,
		&message,
		&resultsJSON,
		&submission.SubmittedAt,
		&gradedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get submission", "submissionID", id, "error", err)
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if message.Valid {
		submission.StatusMessage = message.String
	}
	if gradedAt.Valid {
		submission.GradedAt = &gradedAt.Time
	}
	if err := json.Unmarshal(answersJSON, &submission.Answers); err != nil {
		r.logger.Error("Failed to unmarshal submission answers", "submissionID", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal submission answers: %w", err)
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &submission.Results); err != nil {
			r.logger.Error("Failed to unmarshal grading results", "submissionID", id, "error", err)
			return nil, fmt.Errorf("failed to unmarshal grading results: %w", err)
		}
	}
	return &submission, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubmissionStatus, message string) error {
	query := `
		UPDATE submissions
		SET status = $1, status_message = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, message, id)
	if err != nil {
		r.logger.Error("Failed to update submission status", "submissionID", id, "error", err)
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("submission not found: %s", id)
	}
	return nil
}

// SaveGradingResult overwrites the score and per-answer results wholesale,
// so a retried grading job lands in the same end state as the first run.
func (r *SubmissionRepository) SaveGradingResult(ctx context.Context, id uuid.UUID, score int, answers []domain.GradedAnswer) error {
	resultsJSON, err := json.Marshal(answers)
	if err != nil {
		r.logger.Error("Failed to marshal grading results", "submissionID", id, "error", err)
		return fmt.Errorf("failed to marshal grading results: %w", err)
	}

	query := `
		UPDATE submissions
		SET status = $1, score = $2, results = $3, status_message = '', graded_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query, domain.SubmissionCompleted, score, resultsJSON, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to save grading result", "submissionID", id, "error", err)
		return fmt.Errorf("failed to save grading result: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("submission not found: %s", id)
	}
	return nil
}
