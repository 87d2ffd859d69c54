package runs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/services/harness"
	"gitlab.com/quizcore-2025.net/internal/handlers"
	"gitlab.com/quizcore-2025.net/internal/sandbox"
)

// ApiHandler runs ad-hoc code outside any quiz, for authoring and
// debugging question setups.
type ApiHandler struct {
	harnessService harness.Service
	registry       *sandbox.Registry
	logger         primary.Logger
}

func NewHandler(harnessService harness.Service, registry *sandbox.Registry, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		harnessService: harnessService,
		registry:       registry,
		logger:         logger,
	}
}

// RegisterProtected mounts the routes; arbitrary code execution stays
// behind auth.
func (api *ApiHandler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/api/runs", api.CreateRun).Methods("POST")
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/languages", api.GetLanguages).Methods("GET")
}

type CreateRunRequest struct {
	LanguageID string `json:"languageId"`
	SourceCode string `json:"sourceCode"`
	Stdin      string `json:"stdin,omitempty"`
}

func (api *ApiHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.SourceCode == "" {
		handlers.ResponseError(w, "sourceCode is required", http.StatusBadRequest)
		return
	}

	result, err := api.harnessService.Run(r.Context(), req.LanguageID, req.SourceCode, req.Stdin)
	if err != nil {
		if errors.Is(err, sandbox.ErrUnsupportedLanguage) {
			handlers.ResponseError(w, "Unsupported language", http.StatusBadRequest)
			return
		}
		api.logger.Error("Failed to run code", "language", req.LanguageID, "error", err)
		handlers.ResponseError(w, "Failed to run code", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, result)
}

func (api *ApiHandler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	handlers.ResponseWithJson(w, http.StatusOK, map[string]interface{}{
		"languages": api.registry.Languages(),
	})
}
