package grading

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/core/services/harness"
	"gitlab.com/quizcore-2025.net/internal/core/services/selection"
	"gitlab.com/quizcore-2025.net/internal/domain"
	"gitlab.com/quizcore-2025.net/internal/queue"
	"gitlab.com/quizcore-2025.net/internal/sandbox"
)

type ServiceImpl struct {
	quizRepo       secondary.QuizRepository
	submissionRepo secondary.SubmissionRepository
	gradingQueue   secondary.GradingQueue
	selection      selection.Service
	harness        harness.Service
	logger         primary.Logger
}

func NewService(
	quizRepo secondary.QuizRepository,
	submissionRepo secondary.SubmissionRepository,
	gradingQueue secondary.GradingQueue,
	selectionSvc selection.Service,
	harnessSvc harness.Service,
	logger primary.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		quizRepo:       quizRepo,
		submissionRepo: submissionRepo,
		gradingQueue:   gradingQueue,
		selection:      selectionSvc,
		harness:        harnessSvc,
		logger:         logger,
	}
}

var _ Service = (*ServiceImpl)(nil)

func (s *ServiceImpl) Submit(ctx context.Context, quizID, studentID string, answers []domain.Answer) (*domain.Submission, error) {
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}
	quiz, err := s.quizRepo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	submission := domain.NewSubmission(quizID, studentID, answers)
	if err := s.submissionRepo.SaveSubmission(ctx, submission); err != nil {
		return nil, err
	}
	if err := s.gradingQueue.Enqueue(ctx, submission.ID); err != nil {
		return nil, fmt.Errorf("failed to enqueue submission %s: %w", submission.ID, err)
	}
	s.logger.Info("submission accepted", "submissionID", submission.ID, "quizID", quizID, "studentID", studentID)
	return submission, nil
}

func (s *ServiceImpl) GetSubmission(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	submission, err := s.submissionRepo.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *ServiceImpl) GradeSubmission(ctx context.Context, submissionID uuid.UUID) error {
	submission, err := s.submissionRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if submission == nil {
		return fmt.Errorf("%w: %v", queue.ErrTerminal, ErrSubmissionNotFound)
	}

	if err := s.submissionRepo.UpdateStatus(ctx, submissionID, domain.SubmissionProcessing, ""); err != nil {
		return err
	}

	quiz, err := s.quizRepo.GetQuiz(ctx, submission.QuizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		if err := s.MarkFailed(ctx, submissionID, "quiz no longer exists"); err != nil {
			s.logger.Error("failed to mark submission failed", "submissionID", submissionID, "error", err)
		}
		return fmt.Errorf("%w: %v", queue.ErrTerminal, ErrQuizNotFound)
	}

	assignment, err := s.selection.Assign(ctx, quiz, submission.StudentID)
	if err != nil {
		return err
	}

	graded, total, err := s.gradeAnswers(ctx, quiz, &assignment, submission.Answers)
	if err != nil {
		return err
	}

	if err := s.submissionRepo.SaveGradingResult(ctx, submissionID, total, graded); err != nil {
		return err
	}
	s.logger.Info("submission graded", "submissionID", submissionID, "score", total)
	return nil
}

func (s *ServiceImpl) MarkFailed(ctx context.Context, submissionID uuid.UUID, reason string) error {
	return s.submissionRepo.UpdateStatus(ctx, submissionID, domain.SubmissionError, reason)
}

// gradeAnswers scores each answer in submission order. A bad answer never
// fails the batch: unknown questions, questions outside the student's
// selection, malformed indices and unsupported languages all score zero
// and the walk continues. Only infrastructure failures abort.
func (s *ServiceImpl) gradeAnswers(ctx context.Context, quiz *domain.Quiz, assignment *domain.ShuffleAssignment, answers []domain.Answer) ([]domain.GradedAnswer, int, error) {
	assigned := make(map[string]bool, len(assignment.QuestionIDs))
	for _, id := range assignment.QuestionIDs {
		assigned[id] = true
	}

	graded := make([]domain.GradedAnswer, 0, len(answers))
	total := 0
	for _, answer := range answers {
		question := quiz.QuestionByID(answer.QuestionID)
		if question == nil || !assigned[answer.QuestionID] {
			s.logger.Warn("answer references unassigned question",
				"quizID", quiz.ID, "questionID", answer.QuestionID)
			graded = append(graded, domain.GradedAnswer{QuestionID: answer.QuestionID})
			continue
		}

		var ga domain.GradedAnswer
		var err error
		switch question.Type {
		case domain.QuestionTypeMultipleChoice:
			ga = s.gradeChoice(question, assignment, answer)
		case domain.QuestionTypeCode:
			ga, err = s.gradeCode(ctx, question, answer)
			if err != nil {
				return nil, 0, err
			}
		default:
			ga = domain.GradedAnswer{QuestionID: answer.QuestionID}
		}
		total += ga.Score
		graded = append(graded, ga)
	}
	return graded, total, nil
}

func (s *ServiceImpl) gradeChoice(question *domain.Question, assignment *domain.ShuffleAssignment, answer domain.Answer) domain.GradedAnswer {
	ga := domain.GradedAnswer{QuestionID: answer.QuestionID}
	if answer.SelectedIndex == nil {
		return ga
	}
	displayed := *answer.SelectedIndex
	ga.RawAnswer = strconv.Itoa(displayed)

	canonical := displayed
	if perm, ok := assignment.OptionPermutations[question.ID]; ok {
		resolved, err := selection.ResolveCanonicalIndex(displayed, perm)
		if err != nil {
			return ga
		}
		canonical = resolved
	} else if displayed < 0 || displayed >= len(question.Options) {
		return ga
	}

	if canonical == question.CorrectAnswerIndex {
		ga.IsCorrect = true
		ga.Score = question.Points
	}
	return ga
}

func (s *ServiceImpl) gradeCode(ctx context.Context, question *domain.Question, answer domain.Answer) (domain.GradedAnswer, error) {
	ga := domain.GradedAnswer{QuestionID: answer.QuestionID, RawAnswer: answer.SourceCode}
	if answer.SourceCode == "" {
		return ga, nil
	}

	eval, err := s.harness.Evaluate(ctx, question, answer.SourceCode)
	if err != nil {
		if errors.Is(err, sandbox.ErrUnsupportedLanguage) {
			s.logger.Warn("question configured with unsupported language",
				"questionID", question.ID, "language", question.LanguageID)
			return ga, nil
		}
		return domain.GradedAnswer{}, err
	}

	ga.IsCorrect = eval.IsCorrect
	ga.Score = eval.Score
	ga.TestResults = eval.TestResults
	return ga, nil
}
