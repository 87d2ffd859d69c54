package submissions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/core/services/grading"
	"gitlab.com/quizcore-2025.net/internal/domain"
	"gitlab.com/quizcore-2025.net/internal/handlers"
)

// ApiHandler handles submission API requests.
type ApiHandler struct {
	gradingService grading.Service
	gradingQueue   secondary.GradingQueue
	logger         primary.Logger
}

func NewHandler(gradingService grading.Service, gradingQueue secondary.GradingQueue, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		gradingService: gradingService,
		gradingQueue:   gradingQueue,
		logger:         logger,
	}
}

// Register mounts the student-facing routes. History is operator-facing
// and mounted separately behind auth.
func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/submissions", api.CreateSubmission).Methods("POST")
	r.HandleFunc("/api/submissions/{submissionId}", api.GetSubmission).Methods("GET")
	r.HandleFunc("/api/submissions/{submissionId}/job", api.GetSubmissionJob).Methods("GET")
}

func (api *ApiHandler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/api/grading/history", api.GetHistory).Methods("GET")
}

func (api *ApiHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.QuizID == "" || req.StudentID == "" {
		handlers.ResponseError(w, "quizId and studentId are required", http.StatusBadRequest)
		return
	}

	submission, err := api.gradingService.Submit(r.Context(), req.QuizID, req.StudentID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, grading.ErrQuizNotFound):
			handlers.ResponseError(w, "Quiz not found", http.StatusNotFound)
		case errors.Is(err, grading.ErrNoAnswers):
			handlers.ResponseError(w, "Submission has no answers", http.StatusBadRequest)
		default:
			api.logger.Error("Failed to accept submission", "error", err)
			handlers.ResponseError(w, "Failed to accept submission", http.StatusInternalServerError)
		}
		return
	}

	handlers.ResponseWithJson(w, http.StatusAccepted, CreateSubmissionResponse{
		SubmissionID: submission.ID,
		Status:       submission.Status,
	})
}

func (api *ApiHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := api.submissionID(w, r)
	if !ok {
		return
	}

	submission, err := api.gradingService.GetSubmission(r.Context(), submissionID)
	if err != nil {
		if errors.Is(err, grading.ErrSubmissionNotFound) {
			handlers.ResponseError(w, "Submission not found", http.StatusNotFound)
			return
		}
		api.logger.Error("Failed to get submission", "submissionID", submissionID, "error", err)
		handlers.ResponseError(w, "Failed to get submission", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, sanitize(submission))
}

func (api *ApiHandler) GetSubmissionJob(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := api.submissionID(w, r)
	if !ok {
		return
	}

	job, err := api.gradingQueue.Job(r.Context(), submissionID)
	if err != nil {
		api.logger.Error("Failed to get grading job", "submissionID", submissionID, "error", err)
		handlers.ResponseError(w, "Failed to get grading job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		handlers.ResponseError(w, "Grading job not found", http.StatusNotFound)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, job)
}

func (api *ApiHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	completed, failed, err := api.gradingQueue.History(r.Context())
	if err != nil {
		api.logger.Error("Failed to get grading history", "error", err)
		handlers.ResponseError(w, "Failed to get grading history", http.StatusInternalServerError)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.GradingJob{
		"completed": completed,
		"failed":    failed,
	})
}

func (api *ApiHandler) submissionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := mux.Vars(r)["submissionId"]
	submissionID, err := uuid.Parse(idStr)
	if err != nil {
		api.logger.Error("Invalid submission ID", "id", idStr)
		handlers.ResponseError(w, "Invalid submission ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return submissionID, true
}

// sanitize strips hidden test case payloads before the submission leaves
// the API. The pass/fail verdict stays; inputs and outputs of hidden
// cases do not.
func sanitize(submission *domain.Submission) *domain.Submission {
	if len(submission.Results) == 0 {
		return submission
	}
	out := *submission
	out.Results = make([]domain.GradedAnswer, len(submission.Results))
	for i, ga := range submission.Results {
		if len(ga.TestResults) > 0 {
			results := make([]domain.TestResult, len(ga.TestResults))
			for j, tr := range ga.TestResults {
				if tr.Hidden {
					tr.Input = ""
					tr.ExpectedOutput = ""
					tr.ActualOutput = ""
				}
				results[j] = tr
			}
			ga.TestResults = results
		}
		out.Results[i] = ga
	}
	return &out
}
