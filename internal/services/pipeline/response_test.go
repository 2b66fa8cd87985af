package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/models"
)

// fakeGenerator records its inputs and returns a scripted answer
type fakeGenerator struct {
	answer string
	called bool
	ctxArg string
}

func (f *fakeGenerator) Generate(ctx context.Context, transcript string, kbContext string) string {
	f.called = true
	f.ctxArg = kbContext
	return f.answer
}

func passagesFromSources(sources ...string) []models.Passage {
	out := make([]models.Passage, 0, len(sources))
	for i, s := range sources {
		out = append(out, models.Passage{"text": "snippet " + string(rune('a'+i)), "source": s})
	}
	return out
}

func TestBuild_CitationDedupeOrderPreserving(t *testing.T) {
	gen := &fakeGenerator{}
	builder := NewResponseBuilder(gen, false, common.GetLogger())

	_, citations, mode := builder.Build(context.Background(), "q", passagesFromSources("a", "b", "a", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, citations)
	assert.Equal(t, "template", mode)
}

func TestBuild_EmptyRetrievalClarifies(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	text, citations, mode := builder.Build(context.Background(), "q", nil)
	assert.Equal(t, ClarificationText, text)
	assert.Equal(t, []string{}, citations)
	assert.Equal(t, "clarification", mode)
	assert.False(t, gen.called, "generator must never run with empty context")
}

func TestBuild_BlankSnippetsClarify(t *testing.T) {
	gen := &fakeGenerator{}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	passages := []models.Passage{
		{"text": "   ", "source": "a"},
		{"source": "b"},
	}
	text, citations, mode := builder.Build(context.Background(), "q", passages)
	assert.Equal(t, ClarificationText, text)
	assert.Empty(t, citations)
	assert.Equal(t, "clarification", mode)
	assert.False(t, gen.called)
}

func TestBuild_LLMBranch(t *testing.T) {
	gen := &fakeGenerator{answer: "Refunds take five days."}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	passages := []models.Passage{
		{"text": "Refund window is 5 business days.", "source": "refunds.md"},
		{"text": "Contact support for exceptions.", "source": "support.md"},
	}
	text, citations, mode := builder.Build(context.Background(), "how long do refunds take?", passages)

	assert.Equal(t, "llm", mode)
	assert.Equal(t, []string{"refunds.md", "support.md"}, citations)
	assert.Equal(t, "Refunds take five days.\n\nSources: refunds.md, support.md", text)
	assert.True(t, gen.called)
	assert.Equal(t, "Refund window is 5 business days.\n\nContact support for exceptions.", gen.ctxArg)
}

func TestBuild_LLMEmptyAnswerSubstituted(t *testing.T) {
	gen := &fakeGenerator{answer: "  "}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	text, _, mode := builder.Build(context.Background(), "q", passagesFromSources("a"))
	assert.Equal(t, "llm", mode)
	assert.Equal(t, NeedMoreContextText+"\n\nSources: a", text)
}

func TestBuild_TemplateBranch(t *testing.T) {
	gen := &fakeGenerator{answer: "must not appear"}
	builder := NewResponseBuilder(gen, false, common.GetLogger())

	passages := []models.Passage{
		{"text": "Refund window is 5 business days.", "source": "refunds.md"},
	}
	text, citations, mode := builder.Build(context.Background(), "q", passages)

	assert.Equal(t, "template", mode)
	assert.False(t, gen.called)
	assert.Contains(t, text, "Refund window is 5 business days.")
	assert.True(t, strings.HasSuffix(text, "Sources: refunds.md"))
	assert.Equal(t, []string{"refunds.md"}, citations)
}

func TestBuild_TopFiveCap(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	passages := passagesFromSources("s1", "s2", "s3", "s4", "s5", "s6", "s7")
	_, citations, _ := builder.Build(context.Background(), "q", passages)

	assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, citations)
	assert.Equal(t, 4, strings.Count(gen.ctxArg, "\n\n"))
}

func TestBuild_MetadataFieldExtraction(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	builder := NewResponseBuilder(gen, true, common.GetLogger())

	passages := []models.Passage{
		{"chunk": "from chunk field", "metadata": map[string]any{"source": "meta-src.md"}},
		{"metadata": map[string]any{"text": "from metadata text", "filename": "meta-file.md"}},
		{"content": "from content field"},
	}
	_, citations, _ := builder.Build(context.Background(), "q", passages)

	assert.Equal(t, []string{"meta-src.md", "meta-file.md", "unknown"}, citations)
	assert.Contains(t, gen.ctxArg, "from chunk field")
	assert.Contains(t, gen.ctxArg, "from metadata text")
	assert.Contains(t, gen.ctxArg, "from content field")
}
