package selection

import (
	"context"
	"errors"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

var (
	// ErrDisplayIndexOutOfRange marks a displayed option index that does
	// not fit the stored permutation for its question.
	ErrDisplayIndexOutOfRange = errors.New("displayed index out of range for permutation")
)

// Service assigns each (student, quiz) pair its personal question
// selection, question order and per-question option order, and maps
// displayed indices back to canonical ones at grading time.
//
// The assignment is a pure function of (studentID, quizID, quiz content):
// recomputing it on any node yields byte-identical output, so the stored
// copy is a cache and a first-writer-wins anchor, not a source of
// nondeterminism.
type Service interface {
	// Compute derives the assignment without touching storage.
	Compute(quiz *domain.Quiz, studentID string) domain.ShuffleAssignment

	// Assign computes the assignment and persists it if none exists yet.
	// When a concurrent writer got there first, the stored assignment
	// wins and is returned.
	Assign(ctx context.Context, quiz *domain.Quiz, studentID string) (domain.ShuffleAssignment, error)
}

// ResolveCanonicalIndex maps an option index as displayed to the student
// back to the question's canonical option index.
func ResolveCanonicalIndex(displayedIndex int, perm []int) (int, error) {
	if displayedIndex < 0 || displayedIndex >= len(perm) {
		return 0, ErrDisplayIndexOutOfRange
	}
	return perm[displayedIndex], nil
}
