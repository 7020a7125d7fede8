package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

type nodeRequest struct {
	Key       string          `json:"key"`
	Name      string          `json:"name"`
	Type      schema.NodeType `json:"type"`
	Config    map[string]any  `json:"config"`
	SortOrder int             `json:"sort_order"`
}

type edgeRequest struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition"`
}

type createWorkflowRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Nodes       []nodeRequest `json:"nodes"`
	Edges       []edgeRequest `json:"edges"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req createWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	def := &store.Definition{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      schema.WorkflowStatusDraft,
	}
	for i, n := range req.Nodes {
		sortOrder := n.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		def.Nodes = append(def.Nodes, &store.Node{
			ID:           uuid.NewString(),
			DefinitionID: def.ID,
			Key:          n.Key,
			Name:         n.Name,
			Type:         n.Type,
			Config:       n.Config,
			SortOrder:    sortOrder,
		})
	}
	for _, e := range req.Edges {
		def.Edges = append(def.Edges, &store.Edge{
			ID:           uuid.NewString(),
			DefinitionID: def.ID,
			SourceKey:    e.Source,
			TargetKey:    e.Target,
			Condition:    e.Condition,
		})
	}

	if err := s.deps.Validator.ValidateDefinition(def); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Store.CreateDefinition(r.Context(), def); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.deps.Store.GetDefinition(r.Context(), def.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	filter := store.DefinitionFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := schema.WorkflowStatus(strings.ToUpper(raw))
		filter.Status = &status
	}

	defs, err := s.deps.Store.ListDefinitions(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if defs == nil {
		defs = []*store.Definition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": defs})
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	def, err := s.deps.Store.GetDefinition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

type updateStatusRequest struct {
	Status schema.WorkflowStatus `json:"status"`
}

func (s *Server) handleUpdateWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	switch req.Status {
	case schema.WorkflowStatusDraft, schema.WorkflowStatusActive, schema.WorkflowStatusArchived:
	default:
		s.writeError(w, schema.NewErrorf(schema.ErrCodeInvalidInput, "unknown workflow status %q", req.Status))
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.deps.Store.UpdateDefinitionStatus(r.Context(), id, string(req.Status)); err != nil {
		s.writeError(w, err)
		return
	}

	def, err := s.deps.Store.GetDefinition(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteDefinition(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLaunchRun(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			s.writeError(w, err)
			return
		}
	}

	run, err := s.deps.Launcher.Launch(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}
