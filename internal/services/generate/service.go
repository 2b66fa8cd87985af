package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// SystemPrompt pins answers to the retrieved context
const SystemPrompt = "You are a concise voice assistant. Answer ONLY from the provided knowledge-base context. " +
	"If the context does not cover the question, ask a short clarifying question."

// Provider pairs an LLM backend with its rate limiter
type Provider struct {
	Service interfaces.LLMService
	Limiter *rate.Limiter
}

// Service phrases answers through an ordered provider chain. Each provider
// is tried in turn; errors and empty completions move to the next one, and
// when every backend is exhausted a deterministic placeholder echoing the
// transcript is returned. The service never fails.
type Service struct {
	providers []Provider
	logger    arbor.ILogger
}

// NewService creates a generation service over an ordered provider chain.
// An empty chain is valid and always yields the placeholder.
func NewService(logger arbor.ILogger, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		logger:    logger,
	}
}

// BuildProviders constructs the provider chain from configuration. The
// default provider leads, the other follows; unconfigured providers are
// skipped rather than failing startup.
func BuildProviders(ctx context.Context, config *common.Config, logger arbor.ILogger) []Provider {
	order := []common.LLMProvider{common.LLMProviderClaude, common.LLMProviderGemini}
	if config.LLM.DefaultProvider == common.LLMProviderGemini {
		order = []common.LLMProvider{common.LLMProviderGemini, common.LLMProviderClaude}
	}

	providers := make([]Provider, 0, len(order))
	for _, name := range order {
		switch name {
		case common.LLMProviderClaude:
			if config.Claude.APIKey == "" {
				continue
			}
			svc, err := NewClaudeService(&config.Claude, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("Claude service unavailable, skipping")
				continue
			}
			providers = append(providers, Provider{
				Service: svc,
				Limiter: newLimiter(config.Claude.RateLimit),
			})
		case common.LLMProviderGemini:
			if config.Gemini.APIKey == "" {
				continue
			}
			svc, err := NewGeminiService(ctx, &config.Gemini, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("Gemini service unavailable, skipping")
				continue
			}
			providers = append(providers, Provider{
				Service: svc,
				Limiter: newLimiter(config.Gemini.RateLimit),
			})
		}
	}
	return providers
}

// newLimiter builds a limiter allowing one call per configured interval
func newLimiter(interval string) *rate.Limiter {
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Generate returns answer text for the transcript grounded on kbContext
func (s *Service) Generate(ctx context.Context, transcript string, kbContext string) string {
	messages := []interfaces.Message{
		{Role: "system", Content: SystemPrompt},
	}
	if kbContext != "" {
		messages = append(messages, interfaces.Message{
			Role:    "assistant",
			Content: "KB Context:\n" + kbContext,
		})
	}
	messages = append(messages, interfaces.Message{Role: "user", Content: transcript})

	for _, p := range s.providers {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				s.logger.Warn().Err(err).Str("provider", p.Service.ProviderName()).Msg("Rate limiter wait aborted")
				continue
			}
		}

		answer, err := p.Service.Chat(ctx, messages)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", p.Service.ProviderName()).Msg("Generation backend failed, trying next")
			continue
		}
		if text := strings.TrimSpace(answer); text != "" {
			s.logger.Debug().Str("provider", p.Service.ProviderName()).Int("answer_len", len(text)).Msg("Answer generated")
			return text
		}
	}

	return fmt.Sprintf("LLM not configured. Transcript: %s", transcript)
}

// Configured reports whether at least one backend is available
func (s *Service) Configured() bool {
	return len(s.providers) > 0
}

// Close shuts down every provider in the chain
func (s *Service) Close() error {
	for _, p := range s.providers {
		if err := p.Service.Close(); err != nil {
			return err
		}
	}
	return nil
}

var _ interfaces.Generator = (*Service)(nil)
