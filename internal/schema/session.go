package schema

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Session is the persisted conversational state for one student/subject
// pairing. The JSON tags define the wire layout stored by every backend;
// the whole record is always written as one blob so TotalTokens and
// Messages cannot diverge in the store.
type Session struct {
	SessionID         string    `json:"session_id"`
	StudentID         string    `json:"student_id"`
	Subject           string    `json:"subject"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivity      time.Time `json:"last_activity"`
	TotalTokens       int       `json:"total_tokens"`
	CompressedContext string    `json:"compressed_context,omitempty"`
	Messages          []Message `json:"messages"`
}

// NewSession creates an empty session with a fresh random id.
func NewSession(studentID, subject string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:    newSessionID(),
		StudentID:    studentID,
		Subject:      subject,
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []Message{},
	}
}

// Append adds msg to the session and updates the token account and
// activity timestamp. The invariant TotalTokens == sum of per-message
// counts holds because this is the only way messages enter a session.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.TotalTokens += msg.TokenCount
	s.LastActivity = time.Now().UTC()
}

// Clone returns a deep copy with an independent message slice. Stores hand
// out clones so no two operations ever share a mutable Session.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// newSessionID returns 16 random bytes hex-encoded. rand.Read never fails
// on supported platforms.
func newSessionID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
