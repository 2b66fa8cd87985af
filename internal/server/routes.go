package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Liveness
	mux.HandleFunc("/health", s.app.HealthHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.HealthHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.HealthHandler.VersionHandler)

	// Synchronous agent surface
	mux.HandleFunc("/agent/voice", s.app.AgentHandler.VoiceHandler)
	mux.HandleFunc("/agent/text", s.app.AgentHandler.TextHandler)
	mux.Handle("/results/", s.app.ResultsHandler) // GET /{job_id}/audio|json

	// Asynchronous job surface
	mux.HandleFunc("/api/voice", s.app.JobsHandler.SubmitVoiceHandler)
	mux.Handle("/api/jobs/", s.app.JobsHandler) // GET /{id}[/audio|/meta|/events]

	// Local knowledge base
	mux.HandleFunc("/api/kb/docs", s.app.KBHandler.DocsHandler)
	mux.HandleFunc("/api/kb/search", s.app.KBHandler.SearchHandler)

	return mux
}
