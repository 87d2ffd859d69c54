package secondary

import (
	"context"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

// LanguageRegistry resolves a language id to its sandbox profile.
// Unknown ids yield sandbox.ErrUnsupportedLanguage, which callers must
// treat as a validation error, never as an execution failure.
type LanguageRegistry interface {
	Lookup(languageID string) (domain.LanguageProfile, error)
}

// CodeExecutor runs one piece of source code once, under one stdin payload,
// inside a fresh resource-constrained, network-isolated sandbox.
//
// Error contract: sandbox.ErrSandboxCreation wraps failures before the user
// program runs and is the only outcome the caller should retry;
// sandbox.ErrSandboxTimeout marks a wall-clock expiry and fails only the
// invocation at hand. A runtime failure of the user program is not an
// error: it surfaces through the result's Stderr.
type CodeExecutor interface {
	Run(ctx context.Context, profile domain.LanguageProfile, sourceCode, stdin string) (domain.ExecutionResult, error)
}
