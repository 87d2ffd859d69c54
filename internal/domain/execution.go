package domain

// ExecutionResult is the transient outcome of one sandbox invocation.
type ExecutionResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timedOut"`
}

// TestResult is the outcome of running a submission against one test case.
type TestResult struct {
	Passed         bool   `json:"passed"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Error          string `json:"error,omitempty"`
	Hidden         bool   `json:"hidden"`
}

// Evaluation aggregates a test-harness run for one code question.
// TestResults is nil in ad-hoc run mode (question with zero test cases);
// Score and IsCorrect are only meaningful when TestResults is non-nil.
type Evaluation struct {
	Stdout      string       `json:"stdout"`
	Stderr      string       `json:"stderr"`
	TimedOut    bool         `json:"timedOut"`
	TestResults []TestResult `json:"testResults,omitempty"`
	PassedCount int          `json:"passedCount"`
	Score       int          `json:"score"`
	IsCorrect   bool         `json:"isCorrect"`
}
