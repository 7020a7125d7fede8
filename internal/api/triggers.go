package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type createTriggerRequest struct {
	DefinitionID   string         `json:"definition_id"`
	CronExpression string         `json:"cron_expression"`
	Payload        map[string]any `json:"payload"`
	Enabled        *bool          `json:"enabled"`
}

func (s *Server) handleCreateTrigger(w http.ResponseWriter, r *http.Request) {
	var req createTriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.DefinitionID) == "" {
		s.writeError(w, schema.NewError(schema.ErrCodeInvalidInput, "definition_id is required"))
		return
	}

	schedule, err := cronParser.Parse(req.CronExpression)
	if err != nil {
		s.writeError(w, schema.NewErrorf(schema.ErrCodeInvalidInput,
			"invalid cron expression %q: %v", req.CronExpression, err))
		return
	}

	// The definition must exist; a trigger for a DRAFT workflow is allowed
	// and simply fails to launch until the workflow is activated.
	if _, err := s.deps.Store.GetDefinition(r.Context(), req.DefinitionID); err != nil {
		s.writeError(w, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	nextRun := schedule.Next(time.Now().UTC())
	trig := &store.Trigger{
		ID:             uuid.NewString(),
		DefinitionID:   req.DefinitionID,
		CronExpression: req.CronExpression,
		Payload:        req.Payload,
		Enabled:        enabled,
		NextRunAt:      &nextRun,
	}
	if err := s.deps.Store.CreateTrigger(r.Context(), trig); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.deps.Store.GetTrigger(r.Context(), trig.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	filter := store.TriggerFilter{
		DefinitionID: r.URL.Query().Get("definition_id"),
		Limit:        queryInt(r, "limit", 50),
	}
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled := raw == "true"
		filter.Enabled = &enabled
	}

	triggers, err := s.deps.Store.ListTriggers(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if triggers == nil {
		triggers = []*store.Trigger{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggers": triggers})
}

func (s *Server) handleDeleteTrigger(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteTrigger(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
