package interfaces

import (
	"context"
	"encoding/json"

	"github.com/ternarybob/loquor/internal/models"
)

// Transcriber converts uploaded audio into text
type Transcriber interface {
	// Transcribe returns the transcript payload for the given audio bytes,
	// carrying the raw provider response alongside the extracted text.
	// filename is the client-supplied upload name, used by the placeholder
	// transcript when no backend is configured.
	Transcribe(ctx context.Context, audio []byte, filename string) (*models.TranscriptPayload, error)
}

// Retriever looks up knowledge-base passages for a query
type Retriever interface {
	// Search returns up to topK passages ordered by relevance, plus the
	// raw backend response when a remote call was made (nil otherwise).
	// An empty result is not an error.
	Search(ctx context.Context, query string, topK int) (json.RawMessage, []models.Passage, error)
}

// Generator phrases an answer from a transcript and retrieved context.
// Implementations never fail for well-formed input: backend errors collapse
// to the next tier, ending in a deterministic placeholder that echoes the
// transcript. The caller decides what an empty answer means.
type Generator interface {
	Generate(ctx context.Context, transcript string, kbContext string) string
}

// Synthesizer converts answer text into WAV audio
type Synthesizer interface {
	// Synthesize returns a complete WAV file. voicePrompt selects the
	// voice; implementations fall back to a generated tone when no
	// backend is configured or the backend fails.
	Synthesize(ctx context.Context, text string, voicePrompt string) ([]byte, error)
}
