package routes

import (
	"transcription-orchestrator/api/rest/handlers"
	"transcription-orchestrator/core/repository"
	"transcription-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, jobRepo *repository.JobRepository, sched *scheduler.Scheduler, uploadDir string) {
	jobHandler := handlers.NewJobHandler(jobRepo, sched, uploadDir)

	api := r.PathPrefix("/v1").Subrouter()

	// Transcription endpoints
	api.HandleFunc("/transcriptions", jobHandler.SubmitUpload).Methods("POST")
	api.HandleFunc("/transcriptions/remote", jobHandler.SubmitRemote).Methods("POST")
	api.HandleFunc("/transcriptions/{id}", jobHandler.GetJob).Methods("GET")

	// Diagnostics and static catalog
	api.HandleFunc("/queue/stats", jobHandler.GetQueueStats).Methods("GET")
	api.HandleFunc("/models", jobHandler.ListModels).Methods("GET")
	api.HandleFunc("/languages", jobHandler.ListLanguages).Methods("GET")
}
