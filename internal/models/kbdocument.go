package models

import "time"

// KBDocument is a locally stored knowledge-base document used by keyword
// search when no remote knowledge base is configured.
type KBDocument struct {
	ID        string    `json:"id" badgerhold:"key"`
	Source    string    `json:"source" badgerhold:"index"` // Original filename, used for citations
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
