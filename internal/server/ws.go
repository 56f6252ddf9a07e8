package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/studyai/studyai/internal/tutor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The mobile client does not send a browser Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsQuestion struct {
	Question         string `json:"question"`
	IncludeFollowUps bool   `json:"include_followups"`
}

type wsEvent struct {
	Type      string        `json:"type"` // "session" | "answer" | "error"
	SessionID string        `json:"session_id,omitempty"`
	Answer    *tutor.Answer `json:"answer,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// handleChat runs an interactive tutoring loop over a websocket. Each
// connection owns one session: the first frame from the server announces
// its id, then every question frame is answered with full session context.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	subject := r.URL.Query().Get("subject")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, err := s.sessions.Create(r.Context(), studentID, subject)
	if err != nil {
		_ = conn.WriteJSON(wsEvent{Type: "error", Error: "session creation failed"})
		return
	}
	if err := conn.WriteJSON(wsEvent{Type: "session", SessionID: sess.SessionID}); err != nil {
		return
	}
	slog.Info("chat connected", "student_id", studentID, "session_id", sess.SessionID)

	for {
		var q wsQuestion
		if err := conn.ReadJSON(&q); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("chat read failed", "session_id", sess.SessionID, "error", err)
			}
			return
		}
		if strings.TrimSpace(q.Question) == "" {
			if err := conn.WriteJSON(wsEvent{Type: "error", SessionID: sess.SessionID, Error: "empty question"}); err != nil {
				return
			}
			continue
		}

		ans, err := s.engine.ProcessQuestion(r.Context(), tutor.QuestionRequest{
			StudentID:        studentID,
			SessionID:        sess.SessionID,
			Question:         q.Question,
			Subject:          subject,
			IncludeFollowUps: q.IncludeFollowUps,
		})
		if err != nil {
			if werr := conn.WriteJSON(wsEvent{Type: "error", SessionID: sess.SessionID, Error: err.Error()}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(wsEvent{Type: "answer", SessionID: sess.SessionID, Answer: ans}); err != nil {
			return
		}
	}
}
