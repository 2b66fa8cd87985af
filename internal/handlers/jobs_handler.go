package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/pipeline"
	"github.com/ternarybob/loquor/internal/services/synthesize"
)

// Event-stream polling bounds. The stream is a bounded poll loop, not a
// subscription: it checks status once per interval, emits only on change,
// and stops at a terminal status or after the iteration budget.
const (
	eventPollInterval   = 1 * time.Second
	eventPollIterations = 30
)

// JobsHandler serves the asynchronous job surface: submit a voice job,
// then poll its status, metadata, artifacts, or event stream.
type JobsHandler struct {
	pipeline *pipeline.Pipeline
	store    interfaces.ArtifactStore
	config   *common.Config
	logger   arbor.ILogger
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(p *pipeline.Pipeline, store interfaces.ArtifactStore, config *common.Config, logger arbor.ILogger) *JobsHandler {
	return &JobsHandler{
		pipeline: p,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// SubmitVoiceHandler handles POST /api/voice (multipart: file, mode,
// user_id, session_id, voice_prompt, top_k). The pipeline runs in the
// background; the response carries the job ID for polling.
func (h *JobsHandler) SubmitVoiceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	maxBytes := h.config.Limits.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	audio := make([]byte, 0, 64*1024)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := file.Read(buf)
		audio = append(audio, buf[:n]...)
		if int64(len(audio)) > maxBytes {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytes))
			return
		}
		if readErr != nil {
			break
		}
	}
	if !synthesize.IsWAV(audio) {
		WriteError(w, http.StatusBadRequest, "upload must be a RIFF/WAVE file")
		return
	}

	voicePrompt := r.FormValue("voice_prompt")
	if voicePrompt == "" {
		voicePrompt = h.config.Pipeline.DefaultVoicePrompt
	}

	jobID, err := h.pipeline.SubmitAudio(audio, header.Filename, voicePrompt, h.config.Pipeline.DefaultTopK)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	// Caller identity fields are recorded but not interpreted
	meta := map[string]any{}
	for _, field := range []string{"mode", "user_id", "session_id"} {
		if v := r.FormValue(field); v != "" {
			meta[field] = v
		}
	}
	if len(meta) > 0 {
		if err := h.store.UpdateJob(jobID, meta); err != nil {
			h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to record submission metadata")
		}
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(models.JobStatusQueued),
	})
}

// ServeHTTP routes GET /api/jobs/{id}[/audio|/meta|/events]
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" || len(parts) > 2 {
		WriteError(w, http.StatusNotFound, "not found")
		return
	}
	jobID := parts[0]

	if !h.store.JobExists(jobID) {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	if len(parts) == 1 {
		h.serveStatus(w, jobID)
		return
	}

	switch parts[1] {
	case "audio":
		h.serveAudio(w, jobID)
	case "meta":
		h.serveMeta(w, jobID)
	case "events":
		h.serveEvents(w, r, jobID)
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

func (h *JobsHandler) serveStatus(w http.ResponseWriter, jobID string) {
	job, err := h.store.GetJob(jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := map[string]any{
		"job_id": job.ID,
		"status": job.Status,
	}
	if msg, ok := job.Extra["error"].(string); ok {
		resp["error"] = msg
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *JobsHandler) serveAudio(w http.ResponseWriter, jobID string) {
	audio, err := h.store.ReadBytes(jobID, models.ArtifactOutput)
	if err != nil {
		WriteError(w, http.StatusNotFound, "output audio not found")
		return
	}
	WriteAudio(w, audio)
}

// serveMeta returns the full merged job record plus timings when present
func (h *JobsHandler) serveMeta(w http.ResponseWriter, jobID string) {
	job, err := h.store.GetJob(jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	meta := map[string]any{
		"job_id":     job.ID,
		"status":     job.Status,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	for k, v := range job.Extra {
		meta[k] = v
	}

	var timings map[string]int64
	if err := h.store.ReadJSON(jobID, models.ArtifactTimings, &timings); err == nil {
		meta["timings"] = timings
	}

	WriteJSON(w, http.StatusOK, meta)
}

// serveEvents streams job status as Server-Sent-Events lines of the form
// "data: <status>\n\n" from a bounded poll loop.
func (h *JobsHandler) serveEvents(w http.ResponseWriter, r *http.Request, jobID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var lastStatus models.JobStatus
	emit := func(status models.JobStatus) bool {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", status); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for i := 0; i < eventPollIterations; i++ {
		job, err := h.store.GetJob(jobID)
		if err != nil {
			return
		}

		if job.Status != lastStatus {
			lastStatus = job.Status
			if !emit(job.Status) {
				return
			}
		}
		if job.Status.IsTerminal() {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(eventPollInterval):
		}
	}
}
