package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the student-visible lifecycle of a submission.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionError      SubmissionStatus = "error"
)

// Answer is one raw student answer. SelectedIndex is the DISPLAYED option
// index for multiple-choice questions and must be mapped back through the
// shuffle assignment before comparison; SourceCode is set for code questions.
type Answer struct {
	QuestionID    string `json:"questionId"`
	SelectedIndex *int   `json:"selectedIndex,omitempty"`
	SourceCode    string `json:"sourceCode,omitempty"`
}

// Submission represents one student's answers to a quiz.
type Submission struct {
	ID            uuid.UUID        `json:"id"`
	QuizID        string           `json:"quizId"`
	StudentID     string           `json:"studentId"`
	Answers       []Answer         `json:"answers"`
	Status        SubmissionStatus `json:"status"`
	Score         int              `json:"score"`
	StatusMessage string           `json:"statusMessage,omitempty"`
	Results       []GradedAnswer   `json:"results,omitempty"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	GradedAt      *time.Time       `json:"gradedAt,omitempty"`
}

// NewSubmission creates a pending submission.
func NewSubmission(quizID, studentID string, answers []Answer) *Submission {
	return &Submission{
		ID:          uuid.New(),
		QuizID:      quizID,
		StudentID:   studentID,
		Answers:     answers,
		Status:      SubmissionPending,
		SubmittedAt: time.Now(),
	}
}
