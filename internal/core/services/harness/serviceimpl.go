package harness

import (
	"context"
	"errors"
	"math"
	"strings"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
	"gitlab.com/quizcore-2025.net/internal/sandbox"
)

const timeLimitMessage = "time limit exceeded"

type ServiceImpl struct {
	registry secondary.LanguageRegistry
	executor secondary.CodeExecutor
	logger   primary.Logger
}

func NewService(registry secondary.LanguageRegistry, executor secondary.CodeExecutor, logger primary.Logger) *ServiceImpl {
	return &ServiceImpl{registry: registry, executor: executor, logger: logger}
}

var _ Service = (*ServiceImpl)(nil)

func (s *ServiceImpl) Evaluate(ctx context.Context, question *domain.Question, sourceCode string) (domain.Evaluation, error) {
	profile, err := s.registry.Lookup(question.LanguageID)
	if err != nil {
		return domain.Evaluation{}, err
	}

	if len(question.TestCases) == 0 {
		result, err := s.runOnce(ctx, profile, sourceCode, "")
		if err != nil {
			return domain.Evaluation{}, err
		}
		return domain.Evaluation{
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			TimedOut: result.TimedOut,
		}, nil
	}

	eval := domain.Evaluation{
		TestResults: make([]domain.TestResult, 0, len(question.TestCases)),
	}
	for _, tc := range question.TestCases {
		result, err := s.runOnce(ctx, profile, sourceCode, tc.Input)
		if err != nil {
			// Creation failures poison every remaining case the same way,
			// so the whole evaluation aborts and stays retryable.
			return domain.Evaluation{}, err
		}

		tr := domain.TestResult{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   result.Stdout,
			Hidden:         tc.IsHidden,
		}
		switch {
		case result.TimedOut:
			tr.Error = timeLimitMessage
		case strings.TrimSpace(result.Stderr) != "":
			tr.Error = strings.TrimSpace(result.Stderr)
		}
		tr.Passed = tr.Error == "" &&
			strings.TrimSpace(result.Stdout) == strings.TrimSpace(tc.ExpectedOutput)

		if tr.Passed {
			eval.PassedCount++
		}
		eval.TestResults = append(eval.TestResults, tr)
		eval.Stdout = result.Stdout
		eval.Stderr = result.Stderr
		eval.TimedOut = eval.TimedOut || result.TimedOut
	}

	total := len(question.TestCases)
	eval.Score = int(math.Round(float64(question.Points) * float64(eval.PassedCount) / float64(total)))
	eval.IsCorrect = eval.PassedCount == total
	return eval, nil
}

func (s *ServiceImpl) Run(ctx context.Context, languageID, sourceCode, stdin string) (domain.ExecutionResult, error) {
	profile, err := s.registry.Lookup(languageID)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	return s.runOnce(ctx, profile, sourceCode, stdin)
}

// runOnce invokes the executor and normalizes its error contract: a
// wall-clock expiry becomes result state, a creation failure propagates,
// and any other executor error is folded into Stderr so it fails the
// invocation without failing the batch.
func (s *ServiceImpl) runOnce(ctx context.Context, profile domain.LanguageProfile, sourceCode, stdin string) (domain.ExecutionResult, error) {
	result, err := s.executor.Run(ctx, profile, sourceCode, stdin)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, sandbox.ErrSandboxTimeout):
		result.TimedOut = true
		return result, nil
	case errors.Is(err, sandbox.ErrSandboxCreation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return domain.ExecutionResult{}, err
	default:
		s.logger.Warn("sandbox run failed", "language", profile.ID, "error", err)
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
		return result, nil
	}
}
