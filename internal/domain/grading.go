package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle of a grading job. Terminal states are
// JobCompleted and JobFailed (after retry exhaustion).
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// GradingJob is one unit of queued work scoring one submission end-to-end.
// Its lifecycle is owned by the grading queue.
type GradingJob struct {
	SubmissionID uuid.UUID `json:"submissionId"`
	Attempts     int       `json:"attempts"`
	Status       JobStatus `json:"status"`
	LastError    string    `json:"lastError,omitempty"`
	EnqueuedAt   time.Time `json:"enqueuedAt"`
	FinishedAt   time.Time `json:"finishedAt,omitempty"`
}

// GradedAnswer is the per-question grading outcome, written once per
// submission per question. Invariant: 0 <= Score <= question points.
type GradedAnswer struct {
	QuestionID  string       `json:"questionId"`
	RawAnswer   string       `json:"rawAnswer"`
	IsCorrect   bool         `json:"isCorrect"`
	Score       int          `json:"score"`
	TestResults []TestResult `json:"testResults,omitempty"`
}
