package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for chat-completion providers used to
// phrase grounded answers. Implementations wrap Claude or Gemini.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context
	// including system prompts and user messages.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ProviderName returns the provider identifier ("claude", "gemini")
	ProviderName() string

	// Close releases resources and performs cleanup operations
	Close() error
}
