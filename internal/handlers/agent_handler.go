package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/pipeline"
	"github.com/ternarybob/loquor/internal/services/synthesize"
)

// AgentHandler serves the synchronous agent surface: voice and text
// questions answered in a single request/response exchange.
type AgentHandler struct {
	pipeline *pipeline.Pipeline
	config   *common.Config
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAgentHandler creates an agent handler
func NewAgentHandler(p *pipeline.Pipeline, config *common.Config, logger arbor.ILogger) *AgentHandler {
	return &AgentHandler{
		pipeline: p,
		config:   config,
		validate: validator.New(),
		logger:   logger,
	}
}

// VoiceHandler handles POST /agent/voice (multipart: file, voice_prompt,
// top_k, return_mode)
func (h *AgentHandler) VoiceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	audio, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	topK, ok := h.parseTopK(w, r.FormValue("top_k"))
	if !ok {
		return
	}

	returnMode, ok := h.parseReturnMode(w, r.FormValue("return_mode"))
	if !ok {
		return
	}

	voicePrompt := r.FormValue("voice_prompt")
	if voicePrompt == "" {
		voicePrompt = h.config.Pipeline.DefaultVoicePrompt
	}

	result, err := h.pipeline.RunFromAudio(r.Context(), audio, filename, voicePrompt, topK)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeResult(w, r, result, returnMode)
}

// TextHandler handles POST /agent/text (JSON: text, voice_prompt, top_k,
// return_mode)
func (h *AgentHandler) TextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.TextAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.config.Pipeline.DefaultTopK
	}
	returnMode := req.ReturnMode
	if returnMode == "" {
		returnMode = "file"
	}
	voicePrompt := req.VoicePrompt
	if voicePrompt == "" {
		voicePrompt = h.config.Pipeline.DefaultVoicePrompt
	}

	result, err := h.pipeline.RunFromText(r.Context(), req.Text, voicePrompt, topK)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeResult(w, r, result, returnMode)
}

// readUpload extracts and validates the uploaded WAV file. Writes the error
// response and returns ok=false on any failure.
func (h *AgentHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	maxBytes := h.config.Limits.MaxUploadBytes

	// Cap the whole request body; form fields ride along with the file
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file upload")
		return nil, "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read upload")
		return nil, "", false
	}
	if int64(len(audio)) > maxBytes {
		WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytes))
		return nil, "", false
	}
	if !synthesize.IsWAV(audio) {
		WriteError(w, http.StatusBadRequest, "upload must be a RIFF/WAVE file")
		return nil, "", false
	}

	return audio, header.Filename, true
}

func (h *AgentHandler) parseTopK(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return h.config.Pipeline.DefaultTopK, true
	}
	topK, err := strconv.Atoi(raw)
	if err != nil || topK < 1 || topK > 20 {
		WriteError(w, http.StatusBadRequest, "top_k must be an integer between 1 and 20")
		return 0, false
	}
	return topK, true
}

func (h *AgentHandler) parseReturnMode(w http.ResponseWriter, raw string) (string, bool) {
	switch raw {
	case "":
		return "file", true
	case "file", "url":
		return raw, true
	default:
		WriteError(w, http.StatusBadRequest, "return_mode must be 'file' or 'url'")
		return "", false
	}
}

func (h *AgentHandler) writeResult(w http.ResponseWriter, r *http.Request, result *models.PipelineResult, returnMode string) {
	if returnMode == "url" {
		WriteJSON(w, http.StatusOK, models.AgentURLResponse{
			JobID:      result.JobID,
			AudioURL:   fmt.Sprintf("/results/%s/audio", result.JobID),
			Transcript: result.Transcript,
			KBSources:  result.Citations,
		})
		return
	}

	audio, err := h.pipeline.ReadOutputAudio(result.JobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "output audio unavailable")
		return
	}
	WriteAudio(w, audio)
}

// writePipelineError maps pipeline failures onto HTTP statuses: invalid
// input is the caller's fault, everything else is a gateway failure.
func (h *AgentHandler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrEmptyInput):
		WriteError(w, http.StatusBadRequest, "input must not be empty")
	case errors.Is(err, common.ErrEmptyTranscript):
		WriteError(w, http.StatusBadGateway, "transcription returned no text")
	default:
		WriteError(w, http.StatusBadGateway, err.Error())
	}
}
