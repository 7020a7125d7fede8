package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flowstack/flowstack/pkg/schema"
)

type storeSecretRequest struct {
	Value string `json:"value"`
}

// handleStoreSecret creates or replaces a named secret. The value is
// encrypted by the vault before it reaches the store; it is never
// returned by the API.
func (s *Server) handleStoreSecret(w http.ResponseWriter, r *http.Request) {
	if s.deps.Vault == nil {
		s.writeError(w, schema.NewError(schema.ErrCodeUnknown, "secrets vault is not enabled"))
		return
	}

	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		s.writeError(w, schema.NewError(schema.ErrCodeInvalidInput, "secret key is required"))
		return
	}

	var req storeSecretRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value == "" {
		s.writeError(w, schema.NewError(schema.ErrCodeInvalidInput, "secret value is required"))
		return
	}

	if err := s.deps.Vault.Store(r.Context(), key, []byte(req.Value)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Vault == nil {
		s.writeError(w, schema.NewError(schema.ErrCodeUnknown, "secrets vault is not enabled"))
		return
	}

	keys, err := s.deps.Vault.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *Server) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	if s.deps.Vault == nil {
		s.writeError(w, schema.NewError(schema.ErrCodeUnknown, "secrets vault is not enabled"))
		return
	}

	if err := s.deps.Vault.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
