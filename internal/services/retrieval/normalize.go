package retrieval

import (
	"encoding/json"

	"github.com/ternarybob/loquor/internal/models"
)

// NormalizePassages coerces the response body of a remote knowledge-base
// search into a flat passage list. Backends disagree on envelope shape, so
// the following are all accepted:
//
//	[ {...}, {...} ]
//	{ "results": [...] }
//	{ "data": [...] }
//	{ "items": [...] }
//	"<json-encoded form of any of the above>"
//
// Non-object entries inside the list are dropped.
func NormalizePassages(body []byte) []models.Passage {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return normalizeValue(raw, 0)
}

func normalizeValue(raw any, depth int) []models.Passage {
	// A doubly-encoded payload gets one more decode, nothing deeper
	if depth > 1 {
		return nil
	}

	switch v := raw.(type) {
	case []any:
		passages := make([]models.Passage, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				passages = append(passages, models.Passage(obj))
			}
		}
		return passages

	case map[string]any:
		for _, key := range []string{"results", "data", "items"} {
			if inner, ok := v[key]; ok {
				if passages := normalizeValue(inner, depth); passages != nil {
					return passages
				}
			}
		}
		return nil

	case string:
		var inner any
		if err := json.Unmarshal([]byte(v), &inner); err != nil {
			return nil
		}
		return normalizeValue(inner, depth+1)

	default:
		return nil
	}
}
