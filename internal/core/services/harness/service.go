package harness

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// Service runs student source code through a code question's test cases
// and scores the outcome, or runs it ad hoc when there is nothing to
// grade against.
type Service interface {
	// Evaluate runs the source once per test case, sequentially, and
	// aggregates pass/fail into a score. A question with zero test cases
	// degenerates to a single run with empty stdin and a nil TestResults.
	//
	// Errors wrapping sandbox.ErrSandboxCreation abort the evaluation and
	// are the caller's cue to retry; everything else that can go wrong
	// with a single case is folded into that case's result.
	Evaluate(ctx context.Context, question *domain.Question, sourceCode string) (domain.Evaluation, error)

	// Run executes arbitrary source under the given language with one
	// stdin payload. A wall-clock expiry is reported through the result,
	// not the error.
	Run(ctx context.Context, languageID, sourceCode, stdin string) (domain.ExecutionResult, error)
}
