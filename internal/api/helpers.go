package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/flowstack/flowstack/pkg/schema"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	NodeKey string         `json:"node_key,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps engine error codes onto HTTP statuses and renders the
// standard error envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var fe *schema.FlowError
	if !errors.As(err, &fe) {
		fe = schema.NewError(schema.ErrCodeUnknown, err.Error())
	}

	status := http.StatusInternalServerError
	switch fe.Code {
	case schema.ErrCodeValidation, schema.ErrCodeInvalidInput, schema.ErrCodeCycleDetected:
		status = http.StatusBadRequest
	case schema.ErrCodeNotFound:
		status = http.StatusNotFound
	case schema.ErrCodeConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.deps.Logger.Error("request failed", slog.String("code", string(fe.Code)), slog.String("error", fe.Message))
	}

	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(fe.Code),
		Message: fe.Message,
		NodeKey: fe.NodeKey,
		Details: fe.Details,
	}})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return schema.NewErrorf(schema.ErrCodeInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
