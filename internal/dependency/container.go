// Package dependency wires the studyai services using go.uber.org/dig.
package dependency

import (
	"context"
	"time"

	"go.uber.org/dig"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/janitor"
	"github.com/studyai/studyai/internal/prompt"
	"github.com/studyai/studyai/internal/providers"
	"github.com/studyai/studyai/internal/server"
	"github.com/studyai/studyai/internal/session"
	"github.com/studyai/studyai/internal/store"
	"github.com/studyai/studyai/internal/tokenizer"
	"github.com/studyai/studyai/internal/tutor"
)

// Container holds the resolved service singletons. Callers use the typed
// getter methods; they never need to import dig directly.
type Container struct {
	store    store.SessionStore
	sessions *session.Manager
	engine   *tutor.Engine
	server   *server.Server
	janitor  *janitor.Janitor
}

func (c *Container) Store() store.SessionStore  { return c.store }
func (c *Container) Sessions() *session.Manager { return c.sessions }
func (c *Container) Engine() *tutor.Engine      { return c.engine }
func (c *Container) Server() *server.Server     { return c.server }
func (c *Container) Janitor() *janitor.Janitor  { return c.janitor }

// New builds and wires all services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	for _, provide := range []any{
		func() *config.Config { return cfg },
		newStore,
		newCounter,
		newProvider,
		newSummarizer,
		newSessionManager,
		newPromptBuilder,
		newEngine,
		newServer,
		newJanitor,
	} {
		if err := d.Provide(provide); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		st store.SessionStore,
		sessions *session.Manager,
		engine *tutor.Engine,
		srv *server.Server,
		jan *janitor.Janitor,
	) {
		result = &Container{
			store:    st,
			sessions: sessions,
			engine:   engine,
			server:   srv,
			janitor:  jan,
		}
	})
	return result, err
}

func newStore(cfg *config.Config) store.SessionStore {
	return store.Select(context.Background(), cfg.Redis)
}

func newCounter() tokenizer.Counter {
	return tokenizer.NewCounter()
}

func newProvider(cfg *config.Config) providers.LLMProvider {
	return providers.NewOpenAIProvider(cfg.OpenAI, cfg.Model)
}

func newSummarizer(cfg *config.Config, provider providers.LLMProvider) session.Summarizer {
	timeout := time.Duration(cfg.Session.SummaryTimeoutSec) * time.Second
	return session.NewCompressor(provider, cfg.Model.Name, timeout)
}

func newSessionManager(st store.SessionStore, counter tokenizer.Counter, summarizer session.Summarizer, cfg *config.Config) *session.Manager {
	return session.NewManager(st, counter, summarizer, cfg.Model.Name, cfg.Session)
}

func newPromptBuilder() (*prompt.Builder, error) {
	return prompt.NewBuilder()
}

func newEngine(provider providers.LLMProvider, sessions *session.Manager, prompts *prompt.Builder, cfg *config.Config) *tutor.Engine {
	return tutor.NewEngine(provider, sessions, prompts, cfg.Model)
}

func newServer(cfg *config.Config, engine *tutor.Engine, sessions *session.Manager, prompts *prompt.Builder) *server.Server {
	return server.New(cfg.Server, engine, sessions, prompts)
}

func newJanitor(st store.SessionStore, cfg *config.Config) *janitor.Janitor {
	return janitor.New(st, cfg.Session)
}
