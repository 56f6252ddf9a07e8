package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewSession_Empty(t *testing.T) {
	s := NewSession("student-1", "mathematics")
	if s.SessionID == "" {
		t.Fatal("expected non-empty session id")
	}
	if len(s.Messages) != 0 {
		t.Errorf("expected 0 messages, got %d", len(s.Messages))
	}
	if s.TotalTokens != 0 {
		t.Errorf("expected 0 total tokens, got %d", s.TotalTokens)
	}
	if s.CompressedContext != "" {
		t.Error("expected no compressed context on a fresh session")
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewSession("s", "general").SessionID
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}

func TestAppend_TokenAccounting(t *testing.T) {
	s := NewSession("student-1", "physics")
	before := s.LastActivity

	s.Append(NewMessage(RoleUser, "what is inertia?", 5))
	s.Append(NewMessage(RoleAssistant, "resistance to change in motion", 7))

	if s.TotalTokens != 12 {
		t.Errorf("expected total 12, got %d", s.TotalTokens)
	}
	if got := SumTokens(s.Messages); got != s.TotalTokens {
		t.Errorf("invariant broken: sum %d != total %d", got, s.TotalTokens)
	}
	if s.LastActivity.Before(before) {
		t.Error("last activity must be non-decreasing")
	}
}

func TestClone_Independent(t *testing.T) {
	s := NewSession("student-1", "chemistry")
	s.Append(NewMessage(RoleUser, "balance H2 + O2", 6))

	c := s.Clone()
	c.Append(NewMessage(RoleAssistant, "2H2 + O2 -> 2H2O", 8))

	if len(s.Messages) != 1 {
		t.Errorf("clone mutation leaked into original: %d messages", len(s.Messages))
	}
	if s.TotalTokens == c.TotalTokens {
		t.Error("expected token totals to differ after clone mutation")
	}
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := NewSession("student-42", "biology")
	s.Append(NewMessage(RoleUser, "what is a cell?", 5))
	s.Append(NewMessage(RoleAssistant, "the basic unit of life", 6))
	s.CompressedContext = "Discussed cell theory basics."
	s.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Session
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.SessionID != s.SessionID || back.StudentID != s.StudentID || back.Subject != s.Subject {
		t.Error("identity fields did not round-trip")
	}
	if !back.CreatedAt.Equal(s.CreatedAt) || !back.LastActivity.Equal(s.LastActivity) {
		t.Error("timestamps did not round-trip")
	}
	if back.TotalTokens != s.TotalTokens || back.CompressedContext != s.CompressedContext {
		t.Error("token account or digest did not round-trip")
	}
	if len(back.Messages) != len(s.Messages) {
		t.Fatalf("expected %d messages, got %d", len(s.Messages), len(back.Messages))
	}
	for i := range back.Messages {
		if back.Messages[i].Role != s.Messages[i].Role ||
			back.Messages[i].Content != s.Messages[i].Content ||
			back.Messages[i].TokenCount != s.Messages[i].TokenCount ||
			!back.Messages[i].Timestamp.Equal(s.Messages[i].Timestamp) {
			t.Errorf("message %d did not round-trip", i)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleSystem, RoleUser, RoleAssistant} {
		if !ValidRole(role) {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if ValidRole("tool") || ValidRole("") {
		t.Error("unexpected role accepted")
	}
}
