package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowstack/flowstack/internal/secrets"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/internal/streaming"
	"github.com/flowstack/flowstack/internal/validation"
)

// RunLauncher starts workflow runs. Satisfied by the engine dispatcher.
type RunLauncher interface {
	Launch(ctx context.Context, definitionID string, payload map[string]any) (*store.Run, error)
}

// Deps bundles the collaborators the API server needs.
type Deps struct {
	Store     store.Store
	Validator *validation.DefinitionValidator
	Launcher  RunLauncher
	Hub       streaming.EventHub // optional; enables /runs/{id}/events
	Vault     secrets.Vault      // optional; enables /secrets
	Logger    *slog.Logger
}

// Server exposes the REST surface: workflow definitions, runs, triggers,
// secrets, and run event streams. It validates requests and delegates;
// all execution happens behind the launcher.
type Server struct {
	deps Deps
}

// NewServer creates an API server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps}
}

// Router builds the chi router for all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", s.handleCreateWorkflow)
		r.Get("/", s.handleListWorkflows)
		r.Get("/{id}", s.handleGetWorkflow)
		r.Put("/{id}/status", s.handleUpdateWorkflowStatus)
		r.Delete("/{id}", s.handleDeleteWorkflow)
		r.Post("/{id}/runs", s.handleLaunchRun)
		r.Get("/{id}/diagram", s.handleWorkflowDiagram)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/nodes", s.handleListNodeRuns)
		r.Get("/{id}/events", s.handleRunEvents)
	})

	r.Route("/triggers", func(r chi.Router) {
		r.Post("/", s.handleCreateTrigger)
		r.Get("/", s.handleListTriggers)
		r.Delete("/{id}", s.handleDeleteTrigger)
	})

	r.Route("/secrets", func(r chi.Router) {
		r.Put("/{key}", s.handleStoreSecret)
		r.Get("/", s.handleListSecrets)
		r.Delete("/{key}", s.handleDeleteSecret)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
