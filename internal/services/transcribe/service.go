package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/httpclient"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// EmptyTranscriptText replaces an empty backend transcript when strict
// transcription is disabled.
const EmptyTranscriptText = "No transcript returned from STT provider."

// Service converts uploaded audio to text through an HTTP STT backend.
// Without a configured base URL it degrades to a deterministic placeholder
// transcript so the rest of the pipeline stays exercisable offline.
type Service struct {
	config *common.STTConfig
	strict bool
	client *httpclient.Client
	logger arbor.ILogger
}

// NewService creates a transcription service
func NewService(config *common.STTConfig, strict bool, client *httpclient.Client, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		strict: strict,
		client: client,
		logger: logger,
	}
}

// IsConfigured reports whether a real STT backend will be called
func (s *Service) IsConfigured() bool {
	return s.config.BaseURL != ""
}

// Transcribe returns the transcript payload for the given audio. The raw
// provider response rides along for the transcript artifact. The placeholder
// path never fails; the backend path fails only on transport errors or, in
// strict mode, on an empty transcript.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (*models.TranscriptPayload, error) {
	if !s.IsConfigured() {
		s.logger.Debug().Str("filename", filename).Msg("STT not configured, using placeholder transcript")
		return &models.TranscriptPayload{
			Text:   fmt.Sprintf("STT not configured. Received file: %s", filename),
			Source: "placeholder",
		}, nil
	}

	headers := map[string]string{}
	if s.config.APIKey != "" {
		headers["xi-api-key"] = s.config.APIKey
	}

	fields := map[string]string{}
	if s.config.Model != "" {
		fields["model_id"] = s.config.Model
	}

	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/v1/speech-to-text"
	body, err := s.client.PostMultipartFile(ctx, url, headers, "file", filename, audio, fields)
	if err != nil {
		return nil, fmt.Errorf("stt request failed: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("stt returned invalid JSON: %w", err)
	}

	payload := &models.TranscriptPayload{
		Text:   strings.TrimSpace(result.Text),
		Source: "stt",
		Raw:    json.RawMessage(body),
	}
	if payload.Text == "" {
		if s.strict {
			return nil, common.ErrEmptyTranscript
		}
		s.logger.Warn().Str("filename", filename).Msg("STT returned empty transcript, substituting canned text")
		payload.Text = EmptyTranscriptText
		return payload, nil
	}

	s.logger.Debug().Int("transcript_len", len(payload.Text)).Msg("Transcription complete")
	return payload, nil
}

var _ interfaces.Transcriber = (*Service)(nil)
