package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// snippetLen caps the amount of document text carried into a passage
const snippetLen = 500

// KeywordSearch scores stored documents against the query and returns the
// top k as passages. A document's score is the total number of occurrences
// of every query token in its content; zero-score documents are dropped.
func KeywordSearch(ctx context.Context, store interfaces.DocumentStore, query string, topK int) ([]models.Passage, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc   *models.KBDocument
		score int
	}

	hits := make([]scored, 0, len(docs))
	for _, doc := range docs {
		content := strings.ToLower(doc.Content)
		score := 0
		for _, token := range tokens {
			score += strings.Count(content, token)
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	passages := make([]models.Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, models.Passage{
			"text":   snippet(hit.doc.Content),
			"source": hit.doc.Source,
			"title":  hit.doc.Title,
			"score":  float64(hit.score),
		})
	}
	return passages, nil
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= snippetLen {
		return content
	}
	return content[:snippetLen]
}
