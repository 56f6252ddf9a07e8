// Package providers defines the LLM provider contract and its OpenAI
// implementation. The rest of the backend only sees the interface, so the
// tutor engine and the compression engine can be tested with stubs.
package providers

import (
	"context"

	"github.com/studyai/studyai/internal/schema"
)

// ChatOptions configures a single chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMProvider is the text-completion capability. Implementations return
// the assistant's reply as plain text.
type LLMProvider interface {
	Chat(ctx context.Context, messages []schema.ChatMessage, opts ChatOptions) (string, error)
	DefaultModel() string
}
