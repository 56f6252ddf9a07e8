// Package schema defines the domain types shared across the backend:
// conversation messages, study sessions, and their persisted JSON layout.
// Keeping these contracts in one leaf package prevents higher-level
// packages (session, store, tutor, server) from depending on each other's
// concrete implementations.
package schema

import "time"

// Message roles. Every message in a session carries exactly one of these.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the three conversation roles.
func ValidRole(role string) bool {
	return role == RoleSystem || role == RoleUser || role == RoleAssistant
}

// Message is one role-tagged utterance within a session. It is immutable
// after creation: TokenCount is computed once when the message is appended
// and never recomputed in place.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokenCount int       `json:"token_count"`
}

// NewMessage constructs a message stamped with the current time.
func NewMessage(role, content string, tokens int) Message {
	return Message{
		Role:       role,
		Content:    content,
		Timestamp:  time.Now().UTC(),
		TokenCount: tokens,
	}
}

// ChatMessage is a role/content pair in the shape the model API expects.
// It is what context assembly produces; it never carries token bookkeeping.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SumTokens returns the total token count over msgs.
func SumTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += m.TokenCount
	}
	return total
}
