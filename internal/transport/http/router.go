package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures the jobs API routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/jobs", handler.CreateJob).Methods("POST")
	r.HandleFunc("/api/jobs", handler.ListJobs).Methods("GET")
	r.HandleFunc("/api/jobs/{id}", handler.JobStatus).Methods("GET")
	r.HandleFunc("/api/jobs/{id}/convert", handler.StartConversion).Methods("POST")
	r.HandleFunc("/api/jobs/{id}/cancel", handler.CancelJob).Methods("POST")
	r.HandleFunc("/api/jobs/{id}/stream", handler.StreamJob).Methods("GET")
	r.HandleFunc("/api/jobs/{id}/download", handler.DownloadJob).Methods("GET")
	r.HandleFunc("/api/health", handler.Health).Methods("GET")
	r.HandleFunc("/api/admin/cleanup", handler.AdminCleanup).Methods("POST")
	return r
}
