// package shufflerepository persists per-student shuffle assignments in
// PostgreSQL.
package shufflerepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
	querybuilder "gitlab.com/quizcore-2025.net/internal/utils"
)

type ShuffleRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewShuffleRepository(db *sqlx.DB, logger primary.Logger) *ShuffleRepository {
	return &ShuffleRepository{db: db, logger: logger}
}

var _ secondary.ShuffleRepository = (*ShuffleRepository)(nil)

// SaveAssignment inserts the assignment unless one already exists for the
// (student, quiz) pair. DO NOTHING keeps the first writer's row, which
// concurrent recomputations would reproduce byte for byte anyway.
func (r *ShuffleRepository) SaveAssignment(ctx context.Context, assignment *domain.ShuffleAssignment) error {
	questionIDs, err := json.Marshal(assignment.QuestionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal question ids: %w", err)
	}
	displayOrder, err := json.Marshal(assignment.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to marshal display order: %w", err)
	}
	permutations, err := json.Marshal(assignment.OptionPermutations)
	if err != nil {
		return fmt.Errorf("failed to marshal option permutations: %w", err)
	}

	query, args := querybuilder.NewQueryBuilder("public").
		Insert(
			"student_id",
			"quiz_id",
			"question_ids",
			"display_order",
			"option_permutations",
			"created_at",
		).
		Into("shuffle_assignments").
		Values(
			assignment.StudentID,
			assignment.QuizID,
			questionIDs,
			displayOrder,
			permutations,
			time.Now(),
		).
		OnConflict("student_id", "quiz_id").
		DoNothing().
		Build()

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to save shuffle assignment",
			"quizID", assignment.QuizID, "studentID", assignment.StudentID, "error", err)
		return fmt.Errorf("failed to save shuffle assignment: %w", err)
	}
	return nil
}

func (r *ShuffleRepository) GetAssignment(ctx context.Context, studentID, quizID string) (*domain.ShuffleAssignment, error) {
	query := `
		SELECT question_ids, display_order, option_permutations
		FROM shuffle_assignments
		WHERE student_id = $1 AND quiz_id = $2
	`

	var questionIDs, displayOrder, permutations []byte
	err := r.db.QueryRowContext(ctx, query, studentID, quizID).Scan(&questionIDs, &displayOrder, &permutations)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get shuffle assignment", "quizID", quizID, "studentID", studentID, "error", err)
		return nil, fmt.Errorf("failed to get shuffle assignment: %w", err)
	}

	assignment := domain.ShuffleAssignment{StudentID: studentID, QuizID: quizID}
	if err := json.Unmarshal(questionIDs, &assignment.QuestionIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question ids: %w", err)
	}
	if err := json.Unmarshal(displayOrder, &assignment.DisplayOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal display order: %w", err)
	}
	if len(permutations) > 0 {
		if err := json.Unmarshal(permutations, &assignment.OptionPermutations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal option permutations: %w", err)
		}
	}
	return &assignment, nil
}
