package domain

// QuestionType discriminates the question union.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeCode           QuestionType = "code"
)

// TestCase is an (input, expected output) pair owned by a code question.
// Expected output comparison is exact after trimming both sides.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

// Question is a tagged union: multiple-choice fields are meaningful only when
// Type is QuestionTypeMultipleChoice, code fields only for QuestionTypeCode.
// Questions are immutable once the owning quiz is published.
type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Points int          `json:"points"`

	Options            []string `json:"options,omitempty"`
	CorrectAnswerIndex int      `json:"-"`

	LanguageID string     `json:"languageId,omitempty"`
	TestCases  []TestCase `json:"-"`
}

// PoolConfig caps how many questions of each type a student receives.
// A type with no entry (or a zero count) passes through unfiltered.
type PoolConfig struct {
	Enabled bool                 `json:"enabled"`
	Counts  map[QuestionType]int `json:"counts,omitempty"`
}

type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Questions        []Question `json:"questions"`
	Pool             PoolConfig `json:"pool"`
	ShuffleQuestions bool       `json:"shuffleQuestions"`
	ShuffleOptions   bool       `json:"shuffleOptions"`
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}
