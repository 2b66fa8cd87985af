package models

// TextAgentRequest is the JSON body accepted by the text agent endpoint
type TextAgentRequest struct {
	Text        string `json:"text" validate:"required"`
	TopK        int    `json:"top_k" validate:"omitempty,min=1,max=20"`
	VoicePrompt string `json:"voice_prompt"`
	ReturnMode  string `json:"return_mode" validate:"omitempty,oneof=file url"`
}

// AgentURLResponse is returned for return_mode=url requests
type AgentURLResponse struct {
	JobID      string   `json:"job_id"`
	AudioURL   string   `json:"audio_url"`
	Transcript string   `json:"transcript"`
	KBSources  []string `json:"kb_sources"`
}

// JobJSONResponse is the combined per-job view served from stored artifacts
type JobJSONResponse struct {
	JobID      string           `json:"job_id"`
	Status     JobStatus        `json:"status"`
	Transcript string           `json:"transcript"`
	KBResults  []Passage        `json:"kb_results"`
	Response   *ResponsePayload `json:"response,omitempty"`
	TimingsMs  map[string]int64 `json:"timings_ms,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// KBSearchRequest is the body for local knowledge-base search
type KBSearchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

// KBSearchResult is one scored hit from local keyword search
type KBSearchResult struct {
	Source string  `json:"source"`
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// ErrorResponse is the uniform error body for all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}
