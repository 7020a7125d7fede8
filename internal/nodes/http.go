package nodes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

const (
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
	defaultHTTPTimeout     = 30 * time.Second
)

var supportedHTTPMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// bodyBearingMethods lists the methods a request body is attached to.
var bodyBearingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// HTTPExecutor performs one HTTP call per node. URL and body are templates
// rendered against the run context.
type HTTPExecutor struct {
	client          *http.Client
	maxResponseBody int64
	logger          *slog.Logger
}

// NewHTTPExecutor creates an HTTP node executor. A nil client gets a
// default one with a request timeout.
func NewHTTPExecutor(client *http.Client, logger *slog.Logger) *HTTPExecutor {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPExecutor{client: client, maxResponseBody: defaultMaxResponseBody, logger: logger}
}

func (e *HTTPExecutor) Type() schema.NodeType { return schema.NodeTypeHTTP }

func (e *HTTPExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	snapshot := in.Context.Snapshot()

	urlTemplate := stringParam(in.Config, "url", "")
	if strings.TrimSpace(urlTemplate) == "" {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"HTTP node requires a url in config").WithNode(in.Node.Key)
	}
	url := engine.Render(urlTemplate, snapshot)
	if strings.TrimSpace(url) == "" {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"HTTP node resolved url is empty").WithNode(in.Node.Key)
	}

	method := strings.ToUpper(strings.TrimSpace(stringParam(in.Config, "method", "GET")))
	if method == "" {
		method = http.MethodGet
	}
	if !supportedHTTPMethods[method] {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"unsupported HTTP method: %s", method).WithNode(in.Node.Key)
	}

	var bodyReader io.Reader
	if rawBody, ok := in.Config["body"]; ok && rawBody != nil {
		body := engine.Render(engine.Stringify(rawBody), snapshot)
		if strings.TrimSpace(body) != "" && bodyBearingMethods[method] {
			bodyReader = strings.NewReader(body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"failed to build HTTP request: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}
	for key, value := range mapParam(in.Config, "headers") {
		req.Header.Set(key, engine.Render(engine.Stringify(value), snapshot))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"http call failed: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, e.maxResponseBody))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"failed to read HTTP response body: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}

	e.logger.InfoContext(ctx, "http node completed",
		"method", method, "url", url, "status", resp.StatusCode)
	return &engine.Result{
		Output: map[string]any{
			in.Node.Key + "::status": resp.StatusCode,
			in.Node.Key + "::body":   string(bodyBytes),
			in.Node.Key + "::url":    url,
		},
		Message: "http request completed",
	}, nil
}
