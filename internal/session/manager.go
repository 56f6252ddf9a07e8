// Package session orchestrates study sessions: creation, message appends,
// token accounting, threshold-triggered compression of older turns, and
// assembly of the bounded context sent to the model.
//
// Every public operation is a read-modify-write cycle against the store,
// serialized per session id by a keyed mutex. Each operation fetches its
// own copy of the session, mutates it in memory, and writes the whole
// record back in a single Put, so the persisted token account and message
// list can never diverge.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/schema"
	"github.com/studyai/studyai/internal/store"
	"github.com/studyai/studyai/internal/tokenizer"
)

// Manager owns the session lifecycle. It is backend-agnostic: any
// store.SessionStore, tokenizer.Counter, and Summarizer will do.
type Manager struct {
	store      store.SessionStore
	counter    tokenizer.Counter
	summarizer Summarizer
	model      string
	cfg        config.SessionConfig
	locks      *keyedLocks
}

// NewManager wires a Manager from its collaborators.
func NewManager(st store.SessionStore, counter tokenizer.Counter, summarizer Summarizer, model string, cfg config.SessionConfig) *Manager {
	return &Manager{
		store:      st,
		counter:    counter,
		summarizer: summarizer,
		model:      model,
		cfg:        cfg,
		locks:      newKeyedLocks(),
	}
}

func (m *Manager) ttl() time.Duration {
	return time.Duration(m.cfg.TTLHours) * time.Hour
}

// Create starts a new session for a student/subject pairing and persists it.
func (m *Manager) Create(ctx context.Context, studentID, subject string) (*schema.Session, error) {
	s := schema.NewSession(studentID, subject)
	m.persist(ctx, s)
	return s, nil
}

// Get reads a session from the store. Returns store.ErrSessionNotFound for
// unknown or expired ids.
func (m *Manager) Get(ctx context.Context, id string) (*schema.Session, error) {
	return m.store.Get(ctx, id)
}

// AddMessage appends a role-tagged message to the session, then compresses
// older turns if the token account has crossed the threshold. The updated
// session is persisted exactly once, after any compression, so a crash or
// cancellation mid-operation never leaves a partially updated record.
//
// Compression failure is degraded, not propagated: the message append
// still succeeds and the session keeps its uncompressed context.
func (m *Manager) AddMessage(ctx context.Context, id, role, content string) (*schema.Session, error) {
	if !schema.ValidRole(role) {
		return nil, fmt.Errorf("invalid message role %q", role)
	}

	m.locks.Lock(id)
	defer m.locks.Unlock(id)

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tokens, exact := m.counter.Count(content, m.model)
	if !exact {
		slog.Debug("approximate token count used", "session", id, "tokens", tokens)
	}
	s.Append(schema.NewMessage(role, content, tokens))

	if s.TotalTokens > m.cfg.CompressionThreshold {
		m.compressInMemory(ctx, s)
	}

	m.persist(ctx, s)
	return s, nil
}

// Compress collapses all messages except the retained tail into a digest
// and persists the result. No-op when there is nothing to compress.
func (m *Manager) Compress(ctx context.Context, id string) (*schema.Session, error) {
	m.locks.Lock(id)
	defer m.locks.Unlock(id)

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.compressInMemory(ctx, s) {
		m.persist(ctx, s)
	}
	return s, nil
}

// compressInMemory partitions the session into the prefix to compress and
// the retained tail, summarizes the prefix, and rewrites the session.
// Returns false when nothing changed: the prefix was empty, or
// summarization failed and the session was deliberately left intact.
func (m *Manager) compressInMemory(ctx context.Context, s *schema.Session) bool {
	keep := m.cfg.KeepRecentMessages
	if len(s.Messages) <= keep {
		return false
	}

	toCompress := s.Messages[:len(s.Messages)-keep]
	toKeep := s.Messages[len(s.Messages)-keep:]

	slog.Info("compressing session context",
		"session", s.SessionID, "tokens", s.TotalTokens, "messages", len(toCompress))

	digest, err := m.summarizer.Summarize(ctx, s.CompressedContext, toCompress, s.Subject)
	if err != nil {
		slog.Warn("compression failed, keeping uncompressed context",
			"session", s.SessionID, "err", err)
		return false
	}

	s.CompressedContext = digest
	s.Messages = append([]schema.Message(nil), toKeep...)
	s.TotalTokens = schema.SumTokens(s.Messages)
	return true
}

// ContextForAPI assembles the ordered role/content list for a model call.
// The system prompt always comes first. Over the compression threshold the
// digest (when present) is added as a second system entry and only the
// retained messages follow; under it the full message list is included.
// Read-only: the session is not modified or persisted.
func (m *Manager) ContextForAPI(s *schema.Session, systemPrompt string) []schema.ChatMessage {
	out := []schema.ChatMessage{{Role: schema.RoleSystem, Content: systemPrompt}}

	if s.TotalTokens > m.cfg.CompressionThreshold && s.CompressedContext != "" {
		out = append(out, schema.ChatMessage{
			Role:    schema.RoleSystem,
			Content: "Previous conversation summary: " + s.CompressedContext,
		})
	}

	msgs := s.Messages
	if s.TotalTokens > m.cfg.CompressionThreshold && len(msgs) > m.cfg.KeepRecentMessages {
		msgs = msgs[len(msgs)-m.cfg.KeepRecentMessages:]
	}
	for _, msg := range msgs {
		out = append(out, schema.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Delete removes a session from the store. Deleting an unknown id is not
// an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.locks.Lock(id)
	defer m.locks.Unlock(id)
	return m.store.Delete(ctx, id)
}

// persist writes the whole session with a refreshed TTL. A store failure
// is logged and swallowed: durability degrades but the caller's operation
// still succeeds.
func (m *Manager) persist(ctx context.Context, s *schema.Session) {
	if err := m.store.Put(ctx, s, m.ttl()); err != nil {
		slog.Warn("session persist failed, continuing with degraded durability",
			"session", s.SessionID, "err", err)
	}
}
