package models

// Passage is one retrieved knowledge-base item. Remote backends disagree on
// field names, so the raw object is kept and text/source are extracted by
// priority when the response is built.
type Passage map[string]any

// Text returns the passage body, checking text, chunk, content, then
// metadata.text. Returns "" when no field yields a non-empty string.
func (p Passage) Text() string {
	for _, key := range []string{"text", "chunk", "content"} {
		if s, ok := p[key].(string); ok && s != "" {
			return s
		}
	}
	if meta, ok := p["metadata"].(map[string]any); ok {
		if s, ok := meta["text"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Source returns the passage origin, checking source, metadata.source, then
// metadata.filename. Returns "unknown" when nothing matches.
func (p Passage) Source() string {
	if s, ok := p["source"].(string); ok && s != "" {
		return s
	}
	if meta, ok := p["metadata"].(map[string]any); ok {
		for _, key := range []string{"source", "filename"} {
			if s, ok := meta[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return "unknown"
}
