package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"transcription-orchestrator/core/models"
	"transcription-orchestrator/core/repository"
	"transcription-orchestrator/core/scheduler"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxUploadBytes caps multipart uploads at 512 MB
const maxUploadBytes = 512 << 20

// JobHandler handles transcription-related HTTP requests
type JobHandler struct {
	jobRepo   *repository.JobRepository
	scheduler *scheduler.Scheduler
	uploadDir string
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobRepo *repository.JobRepository, sched *scheduler.Scheduler, uploadDir string) *JobHandler {
	return &JobHandler{
		jobRepo:   jobRepo,
		scheduler: sched,
		uploadDir: uploadDir,
	}
}

// SubmitUpload handles POST /v1/transcriptions
func (h *JobHandler) SubmitUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	localPath, size, err := h.saveUpload(file, header.Filename)
	if err != nil {
		http.Error(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	id, err := h.scheduler.SubmitUpload(
		localPath,
		header.Filename,
		size,
		r.FormValue("model"),
		r.FormValue("language"),
	)
	if err != nil {
		http.Error(w, "Failed to submit job: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.writeSubmitted(w, id)
}

// SubmitRemoteRequest is the JSON body for remote-reference submissions
type SubmitRemoteRequest struct {
	URL      string `json:"url"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// SubmitRemote handles POST /v1/transcriptions/remote
func (h *JobHandler) SubmitRemote(w http.ResponseWriter, r *http.Request) {
	var req SubmitRemoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.scheduler.SubmitRemote(r.Context(), req.URL, req.Model, req.Language)
	if err != nil {
		var tooLong *models.AcquisitionTooLongError
		if errors.As(err, &tooLong) {
			http.Error(w, tooLong.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to submit job: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.writeSubmitted(w, id)
}

// GetJob handles GET /v1/transcriptions/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	job, err := h.jobRepo.GetJob(jobID)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"id":          job.ID,
		"state":       job.State,
		"source_kind": job.SourceKind,
		"model":       job.Model,
		"language":    job.Language,
		"progress":    job.Progress,
		"percent":     job.Percent,
		"timestamps": map[string]interface{}{
			"created_at":   job.CreatedAt,
			"completed_at": job.CompletedAt,
		},
	}
	if job.OriginalName != "" {
		response["file_name"] = job.OriginalName
	}
	if job.SourceURL != "" {
		response["source_url"] = job.SourceURL
	}
	if job.Result != nil {
		segments := make([]map[string]interface{}, len(job.Result.Segments))
		for i, seg := range job.Result.Segments {
			segments[i] = map[string]interface{}{
				"start_ms": seg.StartMS,
				"end_ms":   seg.EndMS,
				"text":     seg.Text,
			}
		}
		response["result"] = map[string]interface{}{
			"text":     job.Result.Text,
			"segments": segments,
		}
	}
	if job.Error != "" {
		response["error"] = job.Error
		if job.ErrorDetail != "" {
			response["error_detail"] = job.ErrorDetail
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// GetQueueStats handles GET /v1/queue/stats
func (h *JobHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Stats())
}

// ListModels handles GET /v1/models
func (h *JobHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":   models.Models(),
		"default": models.DefaultModelID,
	})
}

// ListLanguages handles GET /v1/languages
func (h *JobHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": models.Languages(),
	})
}

// saveUpload writes the request file into the upload dir under a
// collision-free name and returns its path and size
func (h *JobHandler) saveUpload(file io.Reader, originalName string) (string, int64, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", 0, err
	}

	name := uuid.NewString() + "-" + filepath.Base(originalName)
	localPath := filepath.Join(h.uploadDir, name)

	out, err := os.Create(localPath)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()

	size, err := io.Copy(out, file)
	if err != nil {
		os.Remove(localPath)
		return "", 0, err
	}
	return localPath, size, nil
}

func (h *JobHandler) writeSubmitted(w http.ResponseWriter, id string) {
	job, err := h.jobRepo.GetJob(id)
	if err != nil {
		http.Error(w, "Job not found after submit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         job.ID,
		"state":      job.State,
		"created_at": job.CreatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
