package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studyai/studyai/internal/providers"
	"github.com/studyai/studyai/internal/schema"
)

// PlaceholderDigest is returned when summarization fails, so callers that
// insist on using the result still have something to label lost history
// with. The manager discards it and keeps the session uncompressed instead.
const PlaceholderDigest = "Previous conversation context available."

// summaryMaxTokens bounds the digest at roughly the 200-word target.
const summaryMaxTokens = 300

// Summarizer collapses a prefix of older messages into one textual digest.
type Summarizer interface {
	Summarize(ctx context.Context, previousDigest string, msgs []schema.Message, subject string) (string, error)
}

// Compressor implements Summarizer on top of an LLM provider. It is
// stateless beyond its configuration; each call is an independent request
// with its own timeout.
type Compressor struct {
	provider providers.LLMProvider
	model    string
	timeout  time.Duration
}

// NewCompressor returns a Compressor. timeout bounds each summarization
// call; zero means 30 seconds.
func NewCompressor(provider providers.LLMProvider, model string, timeout time.Duration) *Compressor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Compressor{provider: provider, model: model, timeout: timeout}
}

// Summarize produces a digest of msgs for the given subject. When a digest
// from an earlier compression exists it is folded in, so the result covers
// everything compressed so far. On provider failure or timeout it returns
// PlaceholderDigest together with the error; it never panics or blocks
// beyond its timeout.
func (c *Compressor) Summarize(ctx context.Context, previousDigest string, msgs []schema.Message, subject string) (string, error) {
	if len(msgs) == 0 && previousDigest == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildSummaryPrompt(previousDigest, msgs, subject)
	reply, err := c.provider.Chat(ctx, []schema.ChatMessage{
		{Role: schema.RoleUser, Content: prompt},
	}, providers.ChatOptions{
		Model:       c.model,
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		return PlaceholderDigest, fmt.Errorf("summarize conversation: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return PlaceholderDigest, fmt.Errorf("summarize conversation: empty reply")
	}
	return reply, nil
}

func buildSummaryPrompt(previousDigest string, msgs []schema.Message, subject string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please create a concise summary of this educational conversation between a student and AI tutor in %s.\n\n", subject)
	b.WriteString("Focus on:\n")
	b.WriteString("1. Key concepts discussed\n")
	b.WriteString("2. Problems solved\n")
	b.WriteString("3. Student's understanding progress\n")
	b.WriteString("4. Important context for future questions\n\n")
	b.WriteString("Keep the summary under 200 words but preserve all important educational context.\n\n")

	if previousDigest != "" {
		fmt.Fprintf(&b, "Summary of the conversation so far:\n%s\n\n", previousDigest)
	}

	b.WriteString("Conversation to summarize:\n")
	b.WriteString(formatTranscript(msgs))
	b.WriteString("\n\nSummary:")
	return b.String()
}

// formatTranscript renders messages as labelled lines for the summary
// prompt, one "Role: content" line per message.
func formatTranscript(msgs []schema.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", titleRole(m.Role), m.Content))
	}
	return strings.Join(lines, "\n")
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
