package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/schema"
	"github.com/studyai/studyai/internal/store"
)

// wordCounter counts one token per word, exactly. Keeps test arithmetic
// readable.
type wordCounter struct{}

func (wordCounter) Count(text, _ string) (int, bool) {
	return len(strings.Fields(text)), true
}

// stubSummarizer records calls and returns a canned digest or an error.
type stubSummarizer struct {
	mu      sync.Mutex
	calls   int
	prev    []string
	digest  string
	fail    bool
}

func (s *stubSummarizer) Summarize(_ context.Context, previousDigest string, msgs []schema.Message, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prev = append(s.prev, previousDigest)
	if s.fail {
		return PlaceholderDigest, errors.New("summarizer unavailable")
	}
	if s.digest != "" {
		return s.digest, nil
	}
	return fmt.Sprintf("digest %d covering %d messages", s.calls, len(msgs)), nil
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		TTLHours:             24,
		MaxContextTokens:     4000,
		CompressionThreshold: 100,
		KeepRecentMessages:   2,
	}
}

func newTestManager(t *testing.T, sum Summarizer) *Manager {
	t.Helper()
	return NewManager(store.NewMemoryStore(), wordCounter{}, sum, "gpt-4o-mini", testConfig())
}

// checkInvariant asserts total_tokens == sum of per-message counts.
func checkInvariant(t *testing.T, s *schema.Session) {
	t.Helper()
	if got := schema.SumTokens(s.Messages); got != s.TotalTokens {
		t.Fatalf("invariant broken: sum of message tokens %d != total %d", got, s.TotalTokens)
	}
}

// words returns a sentence with exactly n words, so the word counter
// yields exactly n tokens.
func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(out, " ")
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	ctx := context.Background()

	s, err := m.Create(ctx, "student-1", "mathematics")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := m.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StudentID != "student-1" || got.Subject != "mathematics" {
		t.Errorf("unexpected session %+v", got)
	}
	if len(got.Messages) != 0 || got.TotalTokens != 0 || got.CompressedContext != "" {
		t.Error("fresh session must be empty")
	}
}

func TestGet_UnknownSession(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	if _, err := m.Get(context.Background(), "never-created"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAddMessage_Accumulates(t *testing.T) {
	sum := &stubSummarizer{}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "mathematics")
	got, err := m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(10))
	if err != nil {
		t.Fatalf("add message: %v", err)
	}

	if got.TotalTokens != 10 {
		t.Errorf("expected 10 tokens, got %d", got.TotalTokens)
	}
	if sum.callCount() != 0 {
		t.Error("compression must not trigger under the threshold")
	}
	checkInvariant(t, got)

	// The write must be visible to a subsequent read.
	back, err := m.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Messages) != 1 || back.TotalTokens != 10 {
		t.Errorf("persisted state mismatch: %d messages, %d tokens", len(back.Messages), back.TotalTokens)
	}
}

func TestAddMessage_UnknownSession(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	if _, err := m.AddMessage(context.Background(), "ghost", schema.RoleUser, "hi"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAddMessage_InvalidRole(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	ctx := context.Background()
	s, _ := m.Create(ctx, "student-1", "physics")
	if _, err := m.AddMessage(ctx, s.SessionID, "narrator", "once upon a time"); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestAddMessage_TriggersCompression(t *testing.T) {
	sum := &stubSummarizer{digest: "concepts: limits, derivatives"}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "mathematics")

	// Four messages of 30 words each; the fourth crosses the 100 threshold.
	var got *schema.Session
	var err error
	for i := 0; i < 4; i++ {
		got, err = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(30))
		if err != nil {
			t.Fatalf("add message %d: %v", i, err)
		}
	}

	if sum.callCount() == 0 {
		t.Fatal("expected compression to have triggered")
	}
	if got.CompressedContext == "" {
		t.Fatal("expected compressed context to be set")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected retained tail of 2 messages, got %d", len(got.Messages))
	}
	checkInvariant(t, got)

	// The persisted record must match what was returned.
	back, _ := m.Get(ctx, s.SessionID)
	if back.CompressedContext != got.CompressedContext || len(back.Messages) != 2 {
		t.Error("persisted session diverged from returned session")
	}
	checkInvariant(t, back)
}

func TestCompress_NoOpWithoutPrefix(t *testing.T) {
	sum := &stubSummarizer{}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "chemistry")
	_, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(3))

	got, err := m.Compress(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if sum.callCount() != 0 {
		t.Error("nothing to compress, summarizer must not be called")
	}
	if got.CompressedContext != "" || len(got.Messages) != 1 {
		t.Error("session must be unchanged by a no-op compression")
	}
}

func TestCompress_IdempotentBackToBack(t *testing.T) {
	sum := &stubSummarizer{}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "physics")
	for i := 0; i < 4; i++ {
		_, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(10))
	}

	if _, err := m.Compress(ctx, s.SessionID); err != nil {
		t.Fatal(err)
	}
	first := sum.callCount()
	if first != 1 {
		t.Fatalf("expected one summarization, got %d", first)
	}

	// Immediately compressing again finds an empty prefix: no second call.
	got, err := m.Compress(ctx, s.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.callCount() != first {
		t.Error("second compress with no new messages must be a no-op")
	}
	if len(got.Messages) != 2 {
		t.Errorf("retained tail must stay at 2 messages, got %d", len(got.Messages))
	}
	checkInvariant(t, got)
}

func TestRecompression_ReplacesDigest(t *testing.T) {
	sum := &stubSummarizer{}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "mathematics")
	for i := 0; i < 5; i++ {
		_, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(30))
	}
	after, _ := m.Get(ctx, s.SessionID)
	firstDigest := after.CompressedContext
	if firstDigest == "" {
		t.Fatal("first compression did not run")
	}

	// Grow the tail past the threshold again.
	var got *schema.Session
	for i := 0; i < 4; i++ {
		got, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(40))
	}

	if sum.callCount() < 2 {
		t.Fatal("expected a second compression after regrowth")
	}
	if got.CompressedContext == firstDigest {
		t.Error("recompression must replace the prior digest")
	}
	// The prior digest must have been folded into the second summarization.
	sum.mu.Lock()
	second := sum.prev[1]
	sum.mu.Unlock()
	if second != firstDigest {
		t.Errorf("expected prior digest %q passed to summarizer, got %q", firstDigest, second)
	}
	checkInvariant(t, got)
}

func TestAddMessage_SummarizerFailureLeavesSessionIntact(t *testing.T) {
	sum := &stubSummarizer{fail: true}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "biology")
	for i := 0; i < 3; i++ {
		if _, err := m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(30)); err != nil {
			t.Fatalf("add message %d: %v", i, err)
		}
	}
	got, err := m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(30))
	if err != nil {
		t.Fatalf("add message must succeed despite compression failure: %v", err)
	}

	if sum.callCount() == 0 {
		t.Fatal("expected a compression attempt")
	}
	if got.CompressedContext != "" {
		t.Error("failed compression must not install a digest")
	}
	if len(got.Messages) != 4 {
		t.Errorf("all 4 messages must survive, got %d", len(got.Messages))
	}
	if got.TotalTokens != 120 {
		t.Errorf("token account changed by failed compression: %d", got.TotalTokens)
	}
	checkInvariant(t, got)
}

func TestContextForAPI_UnderThreshold(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "physics")
	_, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, "what is torque")
	got, _ := m.AddMessage(ctx, s.SessionID, schema.RoleAssistant, "rotational force")

	api := m.ContextForAPI(got, "You are a physics tutor.")
	if len(api) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(api))
	}
	if api[0].Role != schema.RoleSystem || api[0].Content != "You are a physics tutor." {
		t.Error("system prompt must come first")
	}
	if api[1].Content != "what is torque" || api[2].Content != "rotational force" {
		t.Error("messages out of order")
	}
}

func TestContextForAPI_AfterCompressionNoDuplication(t *testing.T) {
	sum := &stubSummarizer{digest: "summary of early turns"}
	m := newTestManager(t, sum)
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "mathematics")
	for i := 0; i < 5; i++ {
		_, _ = m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(30))
	}
	got, _ := m.Get(ctx, s.SessionID)
	if got.CompressedContext == "" {
		t.Fatal("compression did not run")
	}

	// Compressed session sits below the threshold: context is system
	// prompt plus the retained tail only, digest excluded, and none of
	// the compressed turns reappear.
	api := m.ContextForAPI(got, "prompt")
	if len(api) != 1+len(got.Messages) {
		t.Fatalf("expected %d entries, got %d", 1+len(got.Messages), len(api))
	}
	for _, entry := range api[1:] {
		if entry.Role == schema.RoleSystem {
			t.Error("digest must not be included while under the threshold")
		}
	}

	// Force the session over the threshold without another compression:
	// the digest entry appears exactly once, labelled, followed by only
	// the retained tail.
	got.TotalTokens = m.cfg.CompressionThreshold + 1
	api = m.ContextForAPI(got, "prompt")
	if len(api) != 2+m.cfg.KeepRecentMessages {
		t.Fatalf("expected %d entries, got %d", 2+m.cfg.KeepRecentMessages, len(api))
	}
	if api[1].Role != schema.RoleSystem || !strings.HasPrefix(api[1].Content, "Previous conversation summary: ") {
		t.Errorf("expected labelled digest entry, got %+v", api[1])
	}
}

func TestContextForAPI_ReadOnly(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "history")
	got, _ := m.AddMessage(ctx, s.SessionID, schema.RoleUser, words(5))
	before := got.Clone()

	_ = m.ContextForAPI(got, "prompt")

	if len(got.Messages) != len(before.Messages) || got.TotalTokens != before.TotalTokens {
		t.Error("context assembly must not mutate the session")
	}
}

func TestDelete_Idempotent(t *testing.T) {
	m := newTestManager(t, &stubSummarizer{})
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "economics")
	if err := m.Delete(ctx, s.SessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(ctx, s.SessionID); err != nil {
		t.Errorf("deleting a deleted session must not error: %v", err)
	}
	if _, err := m.Get(ctx, s.SessionID); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestConcurrentAddMessage_NoLostUpdates(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), wordCounter{}, &stubSummarizer{}, "gpt-4o-mini",
		config.SessionConfig{
			TTLHours:             24,
			CompressionThreshold: 1 << 20, // never compress in this test
			KeepRecentMessages:   6,
		})
	ctx := context.Background()

	s, _ := m.Create(ctx, "student-1", "mathematics")

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := m.AddMessage(ctx, s.SessionID, schema.RoleUser, "tick"); err != nil {
					t.Errorf("add message: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != workers*perWorker {
		t.Errorf("lost updates: expected %d messages, got %d", workers*perWorker, len(got.Messages))
	}
	checkInvariant(t, got)
}
