package models

import "encoding/json"

// PipelineResult is the in-memory outcome of a completed pipeline run.
// Artifact files carry the same data on disk; this is what handlers use to
// build their responses without re-reading the job directory.
type PipelineResult struct {
	JobID        string           `json:"job_id"`
	Transcript   string           `json:"transcript"`
	ResponseText string           `json:"response_text"`
	Citations    []string         `json:"citations"`
	AudioPath    string           `json:"audio_path"`
	Timings      map[string]int64 `json:"timings"`
}

// ResponsePayload is the response.json artifact shape
type ResponsePayload struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// KBPayload is the kb.json artifact shape: the raw retrieval response kept
// for debugging alongside the normalized passages the pipeline used.
type KBPayload struct {
	Raw        json.RawMessage `json:"raw"`
	Normalized []Passage       `json:"normalized"`
}

// TranscriptPayload is the transcript.json artifact shape. Raw carries the
// unmodified provider response when a backend was called.
type TranscriptPayload struct {
	Text   string          `json:"text"`
	Source string          `json:"source"` // "stt", "text", or "placeholder"
	Raw    json.RawMessage `json:"raw,omitempty"`
}
