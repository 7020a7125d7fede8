package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		DefinitionID: r.URL.Query().Get("definition_id"),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := schema.RunStatus(strings.ToUpper(raw))
		filter.Status = &status
	}

	runs, err := s.deps.Store.ListRuns(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleListNodeRuns returns the per-node execution records of a run in
// creation order, so clients can reconstruct the traversal.
func (s *Server) handleListNodeRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Store.GetRun(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	nodeRuns, err := s.deps.Store.ListNodeRuns(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if nodeRuns == nil {
		nodeRuns = []*store.NodeRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"node_runs": nodeRuns})
}
