package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/httpclient"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// s2sSilentClipMs is the length of the placeholder clip sent on the
// speech-to-speech fallback path.
const s2sSilentClipMs = 300

// Service converts answer text to WAV audio through an HTTP TTS backend.
// With no backend configured it produces a deterministic tone clip, so
// every job finishes with a playable artifact. When the speech-to-speech
// fallback is enabled, a failed TTS call is retried against the backend's
// s2s endpoint with a short silent clip as placeholder input.
type Service struct {
	config *common.TTSConfig
	client *httpclient.Client
	logger arbor.ILogger
}

// NewService creates a synthesis service
func NewService(config *common.TTSConfig, client *httpclient.Client, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		client: client,
		logger: logger,
	}
}

// IsConfigured reports whether a real TTS backend will be called
func (s *Service) IsConfigured() bool {
	return s.config.BaseURL != ""
}

// Synthesize returns a complete WAV file for the given text
func (s *Service) Synthesize(ctx context.Context, text string, voicePrompt string) ([]byte, error) {
	if !s.IsConfigured() {
		s.logger.Debug().Msg("TTS not configured, generating fallback tone")
		return ToneWAV(), nil
	}

	if voicePrompt == "" {
		voicePrompt = s.config.Voice
	}

	audio, err := s.synthesizeRemote(ctx, text, voicePrompt)
	if err == nil {
		return audio, nil
	}

	if s.config.S2SEnabled {
		s.logger.Warn().Err(err).Msg("TTS call failed, trying speech-to-speech fallback")
		audio, s2sErr := s.s2sFallback(ctx, text, voicePrompt)
		if s2sErr == nil {
			return audio, nil
		}
		return nil, fmt.Errorf("tts failed (%v) and s2s fallback failed: %w", err, s2sErr)
	}

	return nil, fmt.Errorf("tts request failed: %w", err)
}

func (s *Service) synthesizeRemote(ctx context.Context, text, voicePrompt string) ([]byte, error) {
	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/v1/tts"
	body, err := s.client.PostJSON(ctx, url, s.headers(), map[string]string{
		"text":         text,
		"voice_prompt": voicePrompt,
	})
	if err != nil {
		return nil, err
	}
	return s.resolveAudio(ctx, body)
}

func (s *Service) s2sFallback(ctx context.Context, text, voicePrompt string) ([]byte, error) {
	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/v1/s2s"
	body, err := s.client.PostMultipartFile(ctx, url, s.headers(), "file", "silent.wav", SilentWAV(s2sSilentClipMs), map[string]string{
		"text":         text,
		"voice_prompt": voicePrompt,
	})
	if err != nil {
		return nil, err
	}
	return s.resolveAudio(ctx, body)
}

// resolveAudio interprets a backend response as either raw audio bytes or a
// JSON envelope pointing at a downloadable audio URL.
func (s *Service) resolveAudio(ctx context.Context, body []byte) ([]byte, error) {
	if IsWAV(body) || !looksLikeJSON(body) {
		return body, nil
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not JSON after all, treat as audio
		return body, nil
	}

	for _, key := range []string{"audio_url", "url", "download_url"} {
		if u, ok := envelope[key].(string); ok && u != "" {
			s.logger.Debug().Str("audio_url", u).Msg("Dereferencing TTS audio URL")
			return s.client.GetBytes(ctx, u, s.headers())
		}
	}
	return nil, fmt.Errorf("tts JSON response missing audio URL")
}

func (s *Service) headers() map[string]string {
	headers := map[string]string{}
	if s.config.APIKey != "" {
		headers["xi-api-key"] = s.config.APIKey
	}
	return headers
}

func looksLikeJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

var _ interfaces.Synthesizer = (*Service)(nil)
