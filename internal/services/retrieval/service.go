package retrieval

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/httpclient"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// Service retrieves knowledge-base passages. A configured remote backend is
// tried first; on failure (or when no remote is configured) local keyword
// search over the document store takes over. Retrieval never fails the
// pipeline: errors collapse to an empty result.
type Service struct {
	config *common.KBConfig
	store  interfaces.DocumentStore
	client *httpclient.Client
	logger arbor.ILogger
}

// NewService creates a retrieval service
func NewService(config *common.KBConfig, store interfaces.DocumentStore, client *httpclient.Client, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		store:  store,
		client: client,
		logger: logger,
	}
}

// Search returns up to topK passages for the query, plus the raw remote
// response when a remote call succeeded. A remote that errors or yields
// nothing falls through to the local keyword store.
func (s *Service) Search(ctx context.Context, query string, topK int) (json.RawMessage, []models.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, nil
	}

	var raw json.RawMessage
	if s.config.BaseURL != "" {
		body, passages, err := s.searchRemote(ctx, query, topK)
		if err == nil && len(passages) > 0 {
			return body, passages, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("Remote knowledge-base search failed, falling back to local keyword search")
		} else {
			// Keep the empty remote response for the kb artifact
			raw = body
			s.logger.Debug().Msg("Remote knowledge-base search returned nothing, falling back to local keyword search")
		}
	}

	passages, err := KeywordSearch(ctx, s.store, query, topK)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Local keyword search failed")
		return raw, nil, nil
	}
	return raw, passages, nil
}

func (s *Service) searchRemote(ctx context.Context, query string, topK int) (json.RawMessage, []models.Passage, error) {
	headers := map[string]string{}
	if s.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.config.APIKey
	}

	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/kb/search"
	body, err := s.client.PostJSON(ctx, url, headers, map[string]any{
		"query": query,
		"top_k": topK,
	})
	if err != nil {
		return nil, nil, err
	}

	passages := NormalizePassages(body)
	if topK > 0 && len(passages) > topK {
		passages = passages[:topK]
	}
	s.logger.Debug().Int("count", len(passages)).Msg("Remote knowledge-base search complete")
	return json.RawMessage(body), passages, nil
}

var _ interfaces.Retriever = (*Service)(nil)
