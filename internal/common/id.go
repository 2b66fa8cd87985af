package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique job identifier.
// Format: 32 lowercase hex characters, no dashes, safe for directory names.
func NewJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}
