package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/internal/nodes"
	"github.com/flowstack/flowstack/internal/secrets"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/internal/streaming"
	"github.com/flowstack/flowstack/internal/validation"
	"github.com/flowstack/flowstack/pkg/schema"
)

// newTestServer wires a real store, validator, and dispatcher behind an
// httptest server, so requests exercise the same path as production.
func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	s, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	vault, err := secrets.NewAESVault(s, secrets.VaultConfig{MasterKey: bytes.Repeat([]byte{3}, 32)})
	require.NoError(t, err)

	registry := engine.NewRegistry()
	require.NoError(t, nodes.RegisterAll(registry, nodes.Config{Mailer: nopMailer{}, Secrets: vault}))

	hub := streaming.NewMemoryHub()
	pool := engine.NewWorkerPool(2, 4, 16)
	t.Cleanup(pool.Shutdown)
	executor := engine.NewWorkflowExecutor(s, registry, nil)
	executor.SetEventHub(hub)
	dispatcher := engine.NewDispatcher(s, executor, pool, nil)

	validator, err := validation.NewDefinitionValidator()
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(Deps{
		Store:     s,
		Validator: validator,
		Launcher:  dispatcher,
		Hub:       hub,
		Vault:     vault,
	}).Router())
	t.Cleanup(srv.Close)
	return srv, s
}

type nopMailer struct{}

func (nopMailer) Send(context.Context, *nodes.Message) error { return nil }

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func simpleWorkflow() map[string]any {
	return map[string]any{
		"name": "greeting",
		"nodes": []map[string]any{
			{"key": "start", "type": "INPUT", "config": map[string]any{"defaults": map[string]any{"name": "world"}}, "sort_order": 1},
			{"key": "done", "type": "OUTPUT", "config": map[string]any{"fields": []string{"name"}}, "sort_order": 2},
		},
		"edges": []map[string]any{
			{"source": "start", "target": "done"},
		},
	}
}

func createWorkflow(t *testing.T, baseURL string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/workflows", simpleWorkflow())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func activateWorkflow(t *testing.T, baseURL, id string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPut, baseURL+"/workflows/"+id+"/status",
		map[string]any{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ACTIVE", body["status"])
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAndGetWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createWorkflow(t, srv.URL)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "greeting", body["name"])
	assert.Equal(t, "DRAFT", body["status"])
	assert.Len(t, body["nodes"], 2)
	assert.Len(t, body["edges"], 1)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/workflows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["workflows"], 1)
}

func TestCreateWorkflowValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	wf := simpleWorkflow()
	wf["edges"] = []map[string]any{{"source": "start", "target": "ghost"}}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows", wf)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, string(schema.ErrCodeValidation), errObj["code"])
	assert.Contains(t, errObj["message"], "ghost")
}

func TestCreateWorkflowCycleRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	wf := simpleWorkflow()
	wf["edges"] = []map[string]any{
		{"source": "start", "target": "done"},
		{"source": "done", "target": "start"},
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows", wf)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, string(schema.ErrCodeCycleDetected), errObj["code"])
}

func TestGetWorkflowNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/workflows/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, string(schema.ErrCodeNotFound), errObj["code"])
}

func TestLaunchRunLifecycle(t *testing.T) {
	srv, s := newTestServer(t)

	id := createWorkflow(t, srv.URL)
	activateWorkflow(t, srv.URL, id)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows/"+id+"/runs",
		map[string]any{"name": "flowstack"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := body["id"].(string)
	assert.Equal(t, id, body["definition_id"])

	// The run executes asynchronously on the worker pool.
	require.Eventually(t, func() bool {
		run, err := s.GetRun(context.Background(), runID)
		return err == nil && run.Status == schema.RunStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", body["status"])
	ctxData := body["context_data"].(map[string]any)
	assert.Equal(t, "flowstack", ctxData["name"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/runs/"+runID+"/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["node_runs"], 2)

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/runs?definition_id=%s&status=completed", srv.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["runs"], 1)
}

func TestLaunchDraftWorkflowConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createWorkflow(t, srv.URL)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows/"+id+"/runs", nil)

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, string(schema.ErrCodeConflict), errObj["code"])
}

func TestRunNodesForUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/runs/nope/nodes", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTriggerLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createWorkflow(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/triggers", map[string]any{
		"definition_id":   id,
		"cron_expression": "*/5 * * * *",
		"payload":         map[string]any{"source": "cron"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	triggerID := body["id"].(string)
	assert.Equal(t, true, body["enabled"])
	assert.NotEmpty(t, body["next_run_at"], "initial next run is computed on create")

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/triggers?definition_id="+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["triggers"], 1)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/triggers/"+triggerID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCreateTriggerRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createWorkflow(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/triggers", map[string]any{
		"definition_id":   id,
		"cron_expression": "banana",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, string(schema.ErrCodeInvalidInput), errObj["code"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/triggers", map[string]any{
		"definition_id":   "missing",
		"cron_expression": "* * * * *",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createWorkflow(t, srv.URL)
	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/workflows/"+id, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateWorkflowStatusRejectsUnknown(t *testing.T) {
	srv, _ := newTestServer(t)

	id := createWorkflow(t, srv.URL)
	resp, body := doJSON(t, http.MethodPut, srv.URL+"/workflows/"+id+"/status",
		map[string]any{"status": "FROZEN"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Contains(t, errObj["message"], "FROZEN")
}

func TestWorkflowDiagram(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createWorkflow(t, srv.URL)

	resp, err := http.Get(srv.URL + "/workflows/" + id + "/diagram")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "graph TD")
	assert.Contains(t, string(body), "__start__ --> start")

	resp2, body2 := doJSON(t, http.MethodGet, srv.URL+"/workflows/"+id+"/diagram?format=svg", nil)
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	errObj := body2["error"].(map[string]any)
	assert.Contains(t, errObj["message"], "svg")
}

func TestWorkflowDiagramWithRunOverlay(t *testing.T) {
	srv, s := newTestServer(t)
	id := createWorkflow(t, srv.URL)
	activateWorkflow(t, srv.URL, id)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows/"+id+"/runs", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := body["id"].(string)

	require.Eventually(t, func() bool {
		run, err := s.GetRun(context.Background(), runID)
		return err == nil && run.Status == schema.RunStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	diagResp, err := http.Get(srv.URL + "/workflows/" + id + "/diagram?run_id=" + runID)
	require.NoError(t, err)
	defer diagResp.Body.Close()
	require.Equal(t, http.StatusOK, diagResp.StatusCode)
	diagram, err := io.ReadAll(diagResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(diagram), "class start success")
	assert.Contains(t, string(diagram), "class done success")
}

func TestRunEventsStream(t *testing.T) {
	srv, _ := newTestServer(t)

	// An HTTP node that blocks until released keeps the run in flight
	// while the SSE subscription is established.
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(slow.Close)

	wf := map[string]any{
		"name": "slow fetch",
		"nodes": []map[string]any{
			{"key": "fetch", "type": "HTTP", "config": map[string]any{"url": slow.URL}, "sort_order": 1},
			{"key": "done", "type": "OUTPUT", "config": map[string]any{}, "sort_order": 2},
		},
		"edges": []map[string]any{
			{"source": "fetch", "target": "done"},
		},
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/workflows", wf)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	activateWorkflow(t, srv.URL, id)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/workflows/"+id+"/runs", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := body["id"].(string)

	eventsResp, err := http.Get(srv.URL + "/runs/" + runID + "/events")
	require.NoError(t, err)
	defer eventsResp.Body.Close()
	require.Equal(t, http.StatusOK, eventsResp.StatusCode)
	assert.Contains(t, eventsResp.Header.Get("Content-Type"), "text/event-stream")

	got := make(chan string, 16)
	go func() {
		reader := bufio.NewReader(eventsResp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(got)
				return
			}
			if strings.HasPrefix(line, "event: ") {
				got <- strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}()

	// The fetch node is still blocked, so run.completed must arrive
	// after the release and be observed by the live subscription.
	close(release)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case eventType, ok := <-got:
			if !ok {
				t.Fatal("event stream closed before run.completed")
			}
			assert.True(t, strings.HasPrefix(eventType, "run.") || strings.HasPrefix(eventType, "node."),
				"unexpected event type %q", eventType)
			if eventType == streaming.EventRunCompleted {
				return
			}
		case <-deadline:
			t.Fatal("run.completed event not received")
		}
	}
}

func TestRunEventsForUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/runs/nope/events", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSecretsLifecycle(t *testing.T) {
	srv, s := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/secrets/openai_key",
		map[string]any{"value": "sk-secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "openai_key", body["key"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/secrets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"openai_key"}, body["keys"])

	// The raw stored blob is encrypted.
	raw, err := s.GetSecret(context.Background(), "openai_key")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-secret")

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/secrets/empty", map[string]any{"value": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Contains(t, errObj["message"], "value is required")

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/secrets/openai_key", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/secrets/openai_key", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
