package store

import (
	"context"
	"testing"
	"time"

	"github.com/studyai/studyai/internal/schema"
)

func TestMemoryStore_PutGet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s := schema.NewSession("student-1", "mathematics")
	s.Append(schema.NewMessage(schema.RoleUser, "solve x^2 = 4", 6))

	if err := m.Put(ctx, s, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := m.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SessionID != s.SessionID || got.TotalTokens != s.TotalTokens {
		t.Errorf("round trip mismatch: %+v vs %+v", got, s)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s := schema.NewSession("student-1", "physics")
	if err := m.Put(ctx, s, time.Hour); err != nil {
		t.Fatal(err)
	}

	first, _ := m.Get(ctx, s.SessionID)
	first.Append(schema.NewMessage(schema.RoleUser, "mutated", 3))

	second, _ := m.Get(ctx, s.SessionID)
	if len(second.Messages) != 0 {
		t.Error("mutation of a fetched session leaked into the store")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get(context.Background(), "never-created"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s := schema.NewSession("student-1", "biology")
	_ = m.Put(ctx, s, time.Hour)

	if err := m.Delete(ctx, s.SessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(ctx, s.SessionID); err != nil {
		t.Errorf("second delete must be a no-op, got %v", err)
	}
	if _, err := m.Get(ctx, s.SessionID); err != ErrSessionNotFound {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	stale := schema.NewSession("student-1", "history")
	stale.LastActivity = time.Now().Add(-48 * time.Hour)
	fresh := schema.NewSession("student-2", "history")

	_ = m.Put(ctx, stale, time.Hour)
	_ = m.Put(ctx, fresh, time.Hour)

	removed := m.Sweep(24 * time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := m.Get(ctx, stale.SessionID); err != ErrSessionNotFound {
		t.Error("stale session should have been swept")
	}
	if _, err := m.Get(ctx, fresh.SessionID); err != nil {
		t.Errorf("fresh session should survive sweep: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 live session, got %d", m.Len())
	}
}

func TestSessionKey(t *testing.T) {
	if got := sessionKey("abc"); got != "session:abc" {
		t.Errorf("unexpected key %q", got)
	}
}
