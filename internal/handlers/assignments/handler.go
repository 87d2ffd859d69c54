package assignments

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/core/services/selection"
	"gitlab.com/quizcore-2025.net/internal/domain"
	"gitlab.com/quizcore-2025.net/internal/handlers"
)

// ApiHandler serves each student their personal view of a quiz: their
// question selection in display order with options already permuted.
// Answer keys and hidden test cases never appear in the payload.
type ApiHandler struct {
	quizRepo         secondary.QuizRepository
	selectionService selection.Service
	logger           primary.Logger
}

func NewHandler(quizRepo secondary.QuizRepository, selectionService selection.Service, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		quizRepo:         quizRepo,
		selectionService: selectionService,
		logger:           logger,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/quizzes/{quizId}/assignment", api.GetAssignment).Methods("GET")
}

// AssignmentView is the student-facing quiz payload.
type AssignmentView struct {
	QuizID    string         `json:"quizId"`
	Title     string         `json:"title"`
	StudentID string         `json:"studentId"`
	Questions []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID         string              `json:"id"`
	Type       domain.QuestionType `json:"type"`
	Points     int                 `json:"points"`
	Options    []string            `json:"options,omitempty"`
	LanguageID string              `json:"languageId,omitempty"`
	// SampleCases are the question's visible test cases; hidden ones are
	// omitted entirely rather than blanked.
	SampleCases []domain.TestCase `json:"sampleCases,omitempty"`
}

func (api *ApiHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizId"]
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		handlers.ResponseError(w, "studentId is required", http.StatusBadRequest)
		return
	}

	quiz, err := api.quizRepo.GetQuiz(r.Context(), quizID)
	if err != nil {
		api.logger.Error("Failed to get quiz", "quizID", quizID, "error", err)
		handlers.ResponseError(w, "Failed to get quiz", http.StatusInternalServerError)
		return
	}
	if quiz == nil {
		handlers.ResponseError(w, "Quiz not found", http.StatusNotFound)
		return
	}

	assignment, err := api.selectionService.Assign(r.Context(), quiz, studentID)
	if err != nil {
		api.logger.Error("Failed to assign quiz", "quizID", quizID, "studentID", studentID, "error", err)
		handlers.ResponseError(w, "Failed to assign quiz", http.StatusInternalServerError)
		return
	}

	view, err := BuildView(quiz, &assignment)
	if err != nil {
		api.logger.Error("Stored assignment does not match quiz", "quizID", quizID, "studentID", studentID, "error", err)
		handlers.ResponseError(w, "Assignment is out of date", http.StatusConflict)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, view)
}

// BuildView projects an assignment onto its quiz. Questions come out in
// display order; multiple-choice options are reordered by the stored
// permutation so the client renders them as-is.
func BuildView(quiz *domain.Quiz, assignment *domain.ShuffleAssignment) (*AssignmentView, error) {
	view := &AssignmentView{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		StudentID: assignment.StudentID,
		Questions: make([]QuestionView, 0, len(assignment.QuestionIDs)),
	}
	for _, questionID := range assignment.QuestionIDs {
		question := quiz.QuestionByID(questionID)
		if question == nil {
			return nil, &missingQuestionError{QuestionID: questionID}
		}

		qv := QuestionView{
			ID:         question.ID,
			Type:       question.Type,
			Points:     question.Points,
			LanguageID: question.LanguageID,
		}
		if question.Type == domain.QuestionTypeMultipleChoice {
			qv.Options = displayOptions(question.Options, assignment.OptionPermutations[question.ID])
		}
		for _, tc := range question.TestCases {
			if !tc.IsHidden {
				qv.SampleCases = append(qv.SampleCases, tc)
			}
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

// displayOptions places the canonical option perm[d] at display slot d.
func displayOptions(options []string, perm []int) []string {
	if len(perm) != len(options) {
		out := make([]string, len(options))
		copy(out, options)
		return out
	}
	out := make([]string, len(options))
	for d, canonical := range perm {
		out[d] = options[canonical]
	}
	return out
}

type missingQuestionError struct {
	QuestionID string
}

func (e *missingQuestionError) Error() string {
	return "assignment references unknown question " + e.QuestionID
}
