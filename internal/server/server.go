// Package server exposes the tutoring backend over HTTP: question
// processing, practice generation, answer evaluation, session CRUD, and a
// websocket chat loop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/prompt"
	"github.com/studyai/studyai/internal/session"
	"github.com/studyai/studyai/internal/tutor"
)

// Server wires the tutor engine and session manager into an http.Server.
type Server struct {
	engine   *tutor.Engine
	sessions *session.Manager
	prompts  *prompt.Builder
	http     *http.Server
}

func New(cfg config.ServerConfig, engine *tutor.Engine, sessions *session.Manager, prompts *prompt.Builder) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		prompts:  prompts,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           withCORS(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/process-question", s.handleProcessQuestion)
	mux.HandleFunc("POST /api/v1/generate-practice", s.handleGeneratePractice)
	mux.HandleFunc("POST /api/v1/evaluate-answer", s.handleEvaluateAnswer)
	mux.HandleFunc("GET /api/v1/subjects", s.handleSubjects)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", s.handleAddMessage)
	mux.HandleFunc("GET /api/v1/sessions/{id}/context", s.handleSessionContext)
	mux.HandleFunc("GET /api/v1/ws/chat", s.handleChat)
	return mux
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errc
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// withCORS allows cross-origin calls from the mobile client.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
