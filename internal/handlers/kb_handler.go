package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// KBHandler exposes the local knowledge base: document listing and direct
// search, useful for verifying what the retrieval gateway will see.
type KBHandler struct {
	store     interfaces.DocumentStore
	retriever interfaces.Retriever
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewKBHandler creates a knowledge-base handler
func NewKBHandler(store interfaces.DocumentStore, retriever interfaces.Retriever, logger arbor.ILogger) *KBHandler {
	return &KBHandler{
		store:     store,
		retriever: retriever,
		validate:  validator.New(),
		logger:    logger,
	}
}

// DocsHandler handles GET /api/kb/docs
func (h *KBHandler) DocsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	docs, err := h.store.ListDocuments(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	type docSummary struct {
		ID     string   `json:"id"`
		Source string   `json:"source"`
		Title  string   `json:"title"`
		Tags   []string `json:"tags,omitempty"`
	}
	summaries := make([]docSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, docSummary{
			ID:     doc.ID,
			Source: doc.Source,
			Title:  doc.Title,
			Tags:   doc.Tags,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":     len(summaries),
		"documents": summaries,
	})
}

// SearchHandler handles POST /api/kb/search
func (h *KBHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.KBSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = 5
	}

	_, passages, err := h.retriever.Search(r.Context(), req.Query, topK)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]models.KBSearchResult, 0, len(passages))
	for _, p := range passages {
		result := models.KBSearchResult{
			Source: p.Source(),
			Text:   p.Text(),
		}
		if title, ok := p["title"].(string); ok {
			result.Title = title
		}
		if score, ok := p["score"].(float64); ok {
			result.Score = score
		}
		results = append(results, result)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}
