package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// ResultsHandler serves stored artifacts for finished jobs
type ResultsHandler struct {
	store  interfaces.ArtifactStore
	logger arbor.ILogger
}

// NewResultsHandler creates a results handler
func NewResultsHandler(store interfaces.ArtifactStore, logger arbor.ILogger) *ResultsHandler {
	return &ResultsHandler{store: store, logger: logger}
}

// ServeHTTP routes GET /results/{job_id}/audio and /results/{job_id}/json
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/results/"), "/"), "/")
	if len(parts) != 2 {
		WriteError(w, http.StatusNotFound, "not found")
		return
	}
	jobID, kind := parts[0], parts[1]

	if !h.store.JobExists(jobID) {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	switch kind {
	case "audio":
		h.serveAudio(w, jobID)
	case "json":
		h.serveJSON(w, jobID)
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

func (h *ResultsHandler) serveAudio(w http.ResponseWriter, jobID string) {
	audio, err := h.store.ReadBytes(jobID, models.ArtifactOutput)
	if err != nil {
		WriteError(w, http.StatusNotFound, "output audio not found")
		return
	}
	WriteAudio(w, audio)
}

func (h *ResultsHandler) serveJSON(w http.ResponseWriter, jobID string) {
	job, err := h.store.GetJob(jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := models.JobJSONResponse{
		JobID:     job.ID,
		Status:    job.Status,
		KBResults: []models.Passage{},
	}
	if msg, ok := job.Extra["error"].(string); ok {
		resp.Error = msg
	}

	// Optional artifacts: whatever the pipeline managed to write
	var transcript models.TranscriptPayload
	if err := h.store.ReadJSON(jobID, models.ArtifactTranscript, &transcript); err == nil {
		resp.Transcript = transcript.Text
	}
	var kb models.KBPayload
	if err := h.store.ReadJSON(jobID, models.ArtifactKB, &kb); err == nil && kb.Normalized != nil {
		resp.KBResults = kb.Normalized
	}
	var response models.ResponsePayload
	if err := h.store.ReadJSON(jobID, models.ArtifactResponse, &response); err == nil {
		resp.Response = &response
	}
	var timings map[string]int64
	if err := h.store.ReadJSON(jobID, models.ArtifactTimings, &timings); err == nil {
		resp.TimingsMs = timings
	}

	WriteJSON(w, http.StatusOK, resp)
}
