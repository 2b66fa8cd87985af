package common

import "errors"

// Sentinel errors shared across services and handlers.
var (
	// ErrEmptyInput is returned when a pipeline run receives no audio bytes
	// or blank text.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmptyTranscript is returned in strict transcription mode when a
	// configured STT backend produces an empty transcript.
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrJobNotFound is returned when a job directory or record does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrNotConfigured is returned when a provider is called without the
	// required base URL or credentials.
	ErrNotConfigured = errors.New("provider not configured")
)
