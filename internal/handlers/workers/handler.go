package workers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/core/services/worker"
	"gitlab.com/quizcore-2025.net/internal/handlers"
)

type ApiHandler struct {
	WorkerService worker.IWorkerStatusService
}

func NewHandler(workerService worker.IWorkerStatusService) *ApiHandler {
	return &ApiHandler{
		WorkerService: workerService,
	}
}

func (api *ApiHandler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/api/workers", api.GetWorkers).Methods("GET")
	r.HandleFunc("/api/workers/{workerId}", api.GetWorker).Methods("GET")
}

func (api *ApiHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := api.WorkerService.GetAllWorkers(r.Context())
	if err != nil {
		http.Error(w, "Failed to get workers", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, workers)
}

func (api *ApiHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := mux.Vars(r)["workerId"]
	record, err := api.WorkerService.GetWorker(r.Context(), workerID)
	if err != nil {
		http.Error(w, "Failed to get worker", http.StatusInternalServerError)
		return
	}
	if record == nil {
		handlers.ResponseError(w, "Worker not found", http.StatusNotFound)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, record)
}
