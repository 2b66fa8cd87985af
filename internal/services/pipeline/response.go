package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// maxContextPassages bounds the context fed to generation regardless of how
// many passages retrieval returned.
const maxContextPassages = 5

// Canned response lines for the degraded branches.
const (
	ClarificationText = "I could not find a direct match in our current knowledge base. " +
		"Could you share more details so I can narrow this down?"
	NeedMoreContextText = "I need a little more context to answer this accurately."
)

// ResponseBuilder turns a transcript plus retrieved passages into the final
// answer text and citation list. Two tiers: a language-model phrasing when
// augmentation is enabled, a deterministic template otherwise. When no
// passage yields a snippet the generator is never called and a
// clarification-seeking response with no citations is returned.
type ResponseBuilder struct {
	generator  interfaces.Generator
	llmEnabled bool
	logger     arbor.ILogger
}

// NewResponseBuilder creates a response builder
func NewResponseBuilder(generator interfaces.Generator, llmEnabled bool, logger arbor.ILogger) *ResponseBuilder {
	return &ResponseBuilder{
		generator:  generator,
		llmEnabled: llmEnabled,
		logger:     logger,
	}
}

// Build returns the answer text, its citations, and the mode that produced
// it ("clarification", "llm" or "template").
func (b *ResponseBuilder) Build(ctx context.Context, transcript string, passages []models.Passage) (string, []string, string) {
	if len(passages) > maxContextPassages {
		passages = passages[:maxContextPassages]
	}

	snippets := make([]string, 0, len(passages))
	citations := make([]string, 0, len(passages))
	for _, p := range passages {
		if snippet := strings.TrimSpace(p.Text()); snippet != "" {
			snippets = append(snippets, snippet)
		}
		// Blank snippets do not block citation
		citations = append(citations, p.Source())
	}
	citations = dedupe(citations)

	if len(snippets) == 0 {
		return ClarificationText, []string{}, "clarification"
	}

	sources := strings.Join(citations, ", ")

	if b.llmEnabled {
		kbContext := strings.Join(snippets, "\n\n")
		answer := strings.TrimSpace(b.generator.Generate(ctx, transcript, kbContext))
		if answer == "" {
			answer = NeedMoreContextText
		}
		return fmt.Sprintf("%s\n\nSources: %s", answer, sources), citations, "llm"
	}

	text := fmt.Sprintf(
		"Here is a concise answer from the knowledge base: %s "+
			"If you need more specific details, share a bit more context. "+
			"Sources: %s",
		snippets[0], sources,
	)
	return text, citations, "template"
}

// dedupe removes duplicates preserving first-seen order
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
