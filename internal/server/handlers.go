package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studyai/studyai/internal/prompt"
	"github.com/studyai/studyai/internal/schema"
	"github.com/studyai/studyai/internal/store"
	"github.com/studyai/studyai/internal/tutor"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// storeError maps session lookup failures onto status codes: unknown or
// expired sessions are 404, everything else 500.
func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "studyai",
		"features": []string{
			"advanced_prompting",
			"session_compression",
			"practice_generation",
		},
	})
}

type processQuestionRequest struct {
	StudentID        string                 `json:"student_id"`
	SessionID        string                 `json:"session_id,omitempty"`
	Question         string                 `json:"question"`
	Subject          string                 `json:"subject,omitempty"`
	Context          *prompt.StudentContext `json:"context,omitempty"`
	IncludeFollowUps *bool                  `json:"include_followups,omitempty"`
}

func (s *Server) handleProcessQuestion(w http.ResponseWriter, r *http.Request) {
	var req processQuestionRequest
	if !readJSON(w, r, &req) {
		return
	}

	// Follow-ups default to on when the client says nothing.
	includeFollowUps := req.IncludeFollowUps == nil || *req.IncludeFollowUps

	ans, err := s.engine.ProcessQuestion(r.Context(), tutor.QuestionRequest{
		StudentID:        req.StudentID,
		SessionID:        req.SessionID,
		Question:         req.Question,
		Subject:          req.Subject,
		Context:          req.Context,
		IncludeFollowUps: includeFollowUps,
	})
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			storeError(w, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

type generatePracticeRequest struct {
	Topic        string `json:"topic"`
	Subject      string `json:"subject"`
	Difficulty   string `json:"difficulty_level,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

func (s *Server) handleGeneratePractice(w http.ResponseWriter, r *http.Request) {
	var req generatePracticeRequest
	if !readJSON(w, r, &req) {
		return
	}

	set, err := s.engine.GeneratePracticeQuestions(r.Context(), req.Topic, req.Subject, req.Difficulty, req.NumQuestions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, set)
}

type evaluateAnswerRequest struct {
	Question      string `json:"question"`
	StudentAnswer string `json:"student_answer"`
	Subject       string `json:"subject"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

func (s *Server) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	var req evaluateAnswerRequest
	if !readJSON(w, r, &req) {
		return
	}

	feedback, err := s.engine.EvaluateAnswer(r.Context(), req.Question, req.StudentAnswer, req.Subject, req.CorrectAnswer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"feedback": feedback,
		"subject":  req.Subject,
	})
}

type subjectInfo struct {
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	Features        []string `json:"features"`
	Specializations []string `json:"specializations"`
}

func (s *Server) handleSubjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]subjectInfo{
		"subjects": {
			{
				Name:            "Mathematics",
				Code:            "mathematics",
				Features:        []string{"step_by_step_solutions", "equation_formatting", "concept_explanation"},
				Specializations: []string{"algebra", "geometry", "calculus", "statistics"},
			},
			{
				Name:            "Physics",
				Code:            "physics",
				Features:        []string{"unit_analysis", "formula_derivation", "concept_visualization"},
				Specializations: []string{"mechanics", "thermodynamics", "electromagnetism", "quantum"},
			},
			{
				Name:            "Chemistry",
				Code:            "chemistry",
				Features:        []string{"equation_balancing", "molecular_structure", "reaction_mechanisms"},
				Specializations: []string{"organic", "inorganic", "physical", "analytical"},
			},
			{
				Name:            "Biology",
				Code:            "biology",
				Features:        []string{"process_explanation", "system_analysis", "concept_connections"},
				Specializations: []string{"cell_biology", "genetics", "ecology", "anatomy"},
			},
		},
	})
}

type createSessionRequest struct {
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.StudentID, req.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageRequest
	if !readJSON(w, r, &req) {
		return
	}
	if !schema.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid message role")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	sess, err := s.sessions.AddMessage(r.Context(), r.PathValue("id"), req.Role, req.Content)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionContext(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}

	systemPrompt := s.prompts.Enhanced(sess.Subject, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.SessionID,
		"messages":   s.sessions.ContextForAPI(sess, systemPrompt),
	})
}
