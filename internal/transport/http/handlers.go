package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"vidmill/internal/application/convert"
	"vidmill/internal/domain/job"
)

type jobService interface {
	Submit(url string) (job.Record, error)
	Status(id string) (job.Record, error)
	List() []job.Summary
	Convert(id, profile string) (job.Record, error)
	Cancel(id string) (job.Record, error)
	Health(ctx context.Context) convert.Health
}

type cleaner interface {
	Sweep() (removedJobs, removedFiles int)
}

// Handler wires HTTP handlers with the job lifecycle service.
type Handler struct {
	jobs    jobService
	cleaner cleaner
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(jobs jobService, cleaner cleaner, logger *slog.Logger) *Handler {
	return &Handler{jobs: jobs, cleaner: cleaner, logger: logger}
}

type createJobRequest struct {
	URL string `json:"url"`
}

type convertRequest struct {
	QualityProfile string `json:"qualityProfile"`
}

type statusResponse struct {
	ID                 string         `json:"id"`
	Status             job.State      `json:"status"`
	DownloadProgress   int            `json:"downloadProgress"`
	ConversionProgress int            `json:"conversionProgress"`
	Error              string         `json:"error,omitempty"`
	QualityProfile     string         `json:"qualityProfile,omitempty"`
	VideoInfo          *job.MediaInfo `json:"videoInfo,omitempty"`
	ConvertedInfo      *job.MediaInfo `json:"convertedInfo,omitempty"`
	Logs               []string       `json:"logs"`
}

func toStatusResponse(rec job.Record) statusResponse {
	return statusResponse{
		ID:                 rec.ID,
		Status:             rec.State,
		DownloadProgress:   rec.DownloadProgress,
		ConversionProgress: rec.ConversionProgress,
		Error:              rec.Error,
		QualityProfile:     rec.Profile,
		VideoInfo:          rec.VideoInfo,
		ConvertedInfo:      rec.ConvertedInfo,
		Logs:               rec.Logs,
	}
}

// CreateJob handles POST /api/jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: request body must be JSON with a url field", job.ErrInvalidInput))
		return
	}

	rec, err := h.jobs.Submit(req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":              rec.ID,
		"status":          rec.State,
		"qualityProfiles": job.Profiles(),
	})
}

// ListJobs handles GET /api/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.jobs.List())
}

// JobStatus handles GET /api/jobs/{id}.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.jobs.Status(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(rec))
}

// StartConversion handles POST /api/jobs/{id}/convert.
func (h *Handler) StartConversion(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: request body must be JSON with a qualityProfile field", job.ErrInvalidInput))
		return
	}

	rec, err := h.jobs.Convert(mux.Vars(r)["id"], req.QualityProfile)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     rec.ID,
		"status": rec.State,
	})
}

// CancelJob handles POST /api/jobs/{id}/cancel.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	rec, err := h.jobs.Cancel(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     rec.ID,
		"status": rec.State,
	})
}

// StreamJob handles GET /api/jobs/{id}/stream with Range support.
func (h *Handler) StreamJob(w http.ResponseWriter, r *http.Request) {
	rec, path, err := h.completedArtifact(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", artifactName(rec)))
	streamFile(w, r, path, "video/mp4")
}

// DownloadJob handles GET /api/jobs/{id}/download as an attachment.
func (h *Handler) DownloadJob(w http.ResponseWriter, r *http.Request) {
	rec, path, err := h.completedArtifact(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifactName(rec)))
	streamFile(w, r, path, "video/mp4")
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.jobs.Health(r.Context())

	status := http.StatusOK
	body := map[string]interface{}{
		"status":     "healthy",
		"ffmpeg":     "available",
		"activeJobs": report.ActiveJobs,
		"totalJobs":  report.TotalJobs,
	}
	if !report.TranscoderOK {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["ffmpeg"] = "unavailable"
	}

	writeJSON(w, status, body)
}

// AdminCleanup handles POST /api/admin/cleanup.
func (h *Handler) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	removedJobs, removedFiles := h.cleaner.Sweep()
	h.logger.Info("manual cleanup",
		slog.Int("removed_jobs", removedJobs),
		slog.Int("removed_files", removedFiles),
	)
	writeJSON(w, http.StatusOK, map[string]int{
		"removedJobs":  removedJobs,
		"removedFiles": removedFiles,
	})
}

// completedArtifact resolves a job's finished output, or ErrNotFound
// when the job is not Completed or the file is gone.
func (h *Handler) completedArtifact(id string) (job.Record, string, error) {
	rec, err := h.jobs.Status(id)
	if err != nil {
		return job.Record{}, "", err
	}
	if rec.State != job.StateCompleted || rec.OutputPath == "" {
		return job.Record{}, "", fmt.Errorf("%w: converted video not available", job.ErrNotFound)
	}
	if _, err := os.Stat(rec.OutputPath); err != nil {
		return job.Record{}, "", fmt.Errorf("%w: converted video missing on disk", job.ErrNotFound)
	}
	return rec, rec.OutputPath, nil
}

func artifactName(rec job.Record) string {
	profile := rec.Profile
	if profile == "" {
		profile = "converted"
	}
	return "video_" + profile + "_" + rec.ID + ".mp4"
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, job.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, job.ErrInvalidInput), errors.Is(err, job.ErrPreconditionFailed):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
