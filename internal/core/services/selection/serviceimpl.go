package selection

import (
	"context"
	"sort"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

// pooledTypeOrder fixes the order in which question-type partitions draw
// from the generator. Changing it would silently reshuffle every
// student's quiz, so it is append-only.
var pooledTypeOrder = []domain.QuestionType{
	domain.QuestionTypeMultipleChoice,
	domain.QuestionTypeCode,
}

type ServiceImpl struct {
	shuffleRepo secondary.ShuffleRepository
	logger      primary.Logger
}

func NewService(shuffleRepo secondary.ShuffleRepository, logger primary.Logger) *ServiceImpl {
	return &ServiceImpl{shuffleRepo: shuffleRepo, logger: logger}
}

var _ Service = (*ServiceImpl)(nil)

func (s *ServiceImpl) Compute(quiz *domain.Quiz, studentID string) domain.ShuffleAssignment {
	rng := &splitmix64{state: seedFor(studentID, quiz.ID)}

	// Generator draws happen in a fixed sequence: pool selection per
	// type partition, then the display order, then option permutations
	// walked in display order. Every draw consumes from the same stream.
	selected := selectQuestions(quiz, rng)

	displayOrder := identity(len(selected))
	if quiz.ShuffleQuestions {
		rng.shuffle(displayOrder)
	}

	perms := make(map[string][]int)
	if quiz.ShuffleOptions {
		for _, pos := range displayOrder {
			q := selected[pos]
			if q.Type != domain.QuestionTypeMultipleChoice {
				continue
			}
			perm := identity(len(q.Options))
			rng.shuffle(perm)
			perms[q.ID] = perm
		}
	}

	questionIDs := make([]string, len(displayOrder))
	for d, pos := range displayOrder {
		questionIDs[d] = selected[pos].ID
	}
	return domain.ShuffleAssignment{
		StudentID:          studentID,
		QuizID:             quiz.ID,
		QuestionIDs:        questionIDs,
		DisplayOrder:       displayOrder,
		OptionPermutations: perms,
	}
}

func (s *ServiceImpl) Assign(ctx context.Context, quiz *domain.Quiz, studentID string) (domain.ShuffleAssignment, error) {
	computed := s.Compute(quiz, studentID)
	if err := s.shuffleRepo.SaveAssignment(ctx, &computed); err != nil {
		return domain.ShuffleAssignment{}, err
	}
	stored, err := s.shuffleRepo.GetAssignment(ctx, studentID, quiz.ID)
	if err != nil {
		return domain.ShuffleAssignment{}, err
	}
	if stored == nil {
		// Save succeeded but the row is gone already; hand back the
		// recomputation, which is what the row held.
		s.logger.Warn("assignment missing after save", "quizID", quiz.ID, "studentID", studentID)
		return computed, nil
	}
	return *stored, nil
}

// selectQuestions applies the pool configuration. Questions keep their
// canonical quiz order in the returned slice; only membership is random.
func selectQuestions(quiz *domain.Quiz, rng *splitmix64) []domain.Question {
	if !quiz.Pool.Enabled {
		return quiz.Questions
	}

	chosen := make(map[int]bool)
	for _, qType := range pooledTypeOrder {
		var partition []int
		for i, q := range quiz.Questions {
			if q.Type == qType {
				partition = append(partition, i)
			}
		}
		count, ok := quiz.Pool.Counts[qType]
		if !ok || count == 0 || count >= len(partition) {
			// No cap configured for this type, or the cap does not bite:
			// the whole partition passes through and no draws happen.
			for _, i := range partition {
				chosen[i] = true
			}
			continue
		}
		rng.shuffle(partition)
		for _, i := range partition[:count] {
			chosen[i] = true
		}
	}

	indices := make([]int, 0, len(chosen))
	for i := range chosen {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	selected := make([]domain.Question, len(indices))
	for j, i := range indices {
		selected[j] = quiz.Questions[i]
	}
	return selected
}
