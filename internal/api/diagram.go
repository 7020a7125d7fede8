package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowstack/flowstack/internal/diagram"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// handleWorkflowDiagram renders a workflow definition as a diagram.
// format=mermaid (default) returns text, format=png an image. With
// run_id the nodes are colored by that run's node statuses.
func (s *Server) handleWorkflowDiagram(w http.ResponseWriter, r *http.Request) {
	def, err := s.deps.Store.GetDefinition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var nodeRuns []*store.NodeRun
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		run, err := s.deps.Store.GetRun(r.Context(), runID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if run.DefinitionID != def.ID {
			s.writeError(w, schema.NewErrorf(schema.ErrCodeInvalidInput,
				"run %s does not belong to workflow %s", runID, def.ID))
			return
		}
		if nodeRuns, err = s.deps.Store.ListNodeRuns(r.Context(), runID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	model := diagram.Build(def, nodeRuns)

	switch format := r.URL.Query().Get("format"); format {
	case "", "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(diagram.RenderMermaid(model)))
	case "png":
		png, err := diagram.RenderImage(model)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	default:
		s.writeError(w, schema.NewErrorf(schema.ErrCodeInvalidInput,
			"unknown diagram format %q (expected mermaid or png)", format))
	}
}
