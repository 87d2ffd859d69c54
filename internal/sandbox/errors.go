package sandbox

import "errors"

var (
	// ErrUnsupportedLanguage means the language id has no registry entry.
	// Callers must treat it as a validation error, never retry it.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrSandboxCreation wraps any failure before the user program ran:
	// daemon unreachable, image pull, container create or start, source
	// copy. It is the only executor failure a caller should retry.
	ErrSandboxCreation = errors.New("sandbox creation failed")

	// ErrSandboxTimeout marks a wall-clock expiry; the sandbox was
	// forcibly destroyed. Fails the invocation at hand, never the job.
	ErrSandboxTimeout = errors.New("sandbox timed out")
)
