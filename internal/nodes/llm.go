package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// OpenAIConfig configures the CHATGPT node executor.
type OpenAIConfig struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
}

// OllamaConfig configures the OLLAMA node executor.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	MaxTokens    int
}

const defaultOllamaMaxTokens = 500

// SecretSource resolves named secrets for node configurations.
// Satisfied by the secrets vault.
type SecretSource interface {
	Resolve(ctx context.Context, key string) ([]byte, error)
}

// ChatGPTExecutor calls the OpenAI chat completions API with a prompt
// template rendered against the run context.
type ChatGPTExecutor struct {
	client  *http.Client
	cfg     OpenAIConfig
	secrets SecretSource
	logger  *slog.Logger
}

// NewChatGPTExecutor creates a CHATGPT node executor.
func NewChatGPTExecutor(client *http.Client, cfg OpenAIConfig, logger *slog.Logger) *ChatGPTExecutor {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatGPTExecutor{client: client, cfg: cfg, logger: logger}
}

// SetSecretSource enables per-node API key resolution via the
// "api_key_secret" config field.
func (e *ChatGPTExecutor) SetSecretSource(src SecretSource) {
	e.secrets = src
}

func (e *ChatGPTExecutor) Type() schema.NodeType { return schema.NodeTypeChatGPT }

// apiKey resolves the key for a call: a node-level "api_key_secret"
// vault reference wins over the server-wide configured key.
func (e *ChatGPTExecutor) apiKey(ctx context.Context, config map[string]any) (string, error) {
	secretKey := stringParam(config, "api_key_secret", "")
	if secretKey == "" {
		return e.cfg.APIKey, nil
	}
	if e.secrets == nil {
		return "", fmt.Errorf("api_key_secret %q configured but no secret source is attached", secretKey)
	}
	value, err := e.secrets.Resolve(ctx, secretKey)
	if err != nil {
		return "", fmt.Errorf("resolve api_key_secret %q: %w", secretKey, err)
	}
	return string(value), nil
}

func (e *ChatGPTExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	snapshot := in.Context.Snapshot()

	prompt := engine.Render(stringParam(in.Config, "prompt", "Provide a summary"), snapshot)
	if strings.TrimSpace(prompt) == "" {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"ChatGPT prompt resolved to empty value").WithNode(in.Node.Key)
	}
	apiKey, err := e.apiKey(ctx, in.Config)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"%s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}
	if apiKey == "" {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"OpenAI API key is not configured").WithNode(in.Node.Key)
	}

	model := stringParam(in.Config, "model", e.cfg.DefaultModel)
	request := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if temperature, ok := floatParam(in.Config, "temperature", 0); ok {
		request["temperature"] = temperature
	}

	response, err := postJSON(ctx, e.client, e.cfg.BaseURL+"/chat/completions", request, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"ChatGPT call failed: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}

	e.logger.InfoContext(ctx, "chatgpt node invoked", "model", model)
	return &engine.Result{
		Output: map[string]any{
			in.Node.Key + "::response": extractChatContent(response),
			"model":                    model,
			"prompt":                   prompt,
		},
		Message: "chatgpt response",
	}, nil
}

// extractChatContent pulls choices[0].message.content (or the legacy
// choices[0].text) out of a chat completions response.
func extractChatContent(response map[string]any) string {
	choices, ok := response["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	if message, ok := first["message"].(map[string]any); ok {
		if content, ok := message["content"]; ok && content != nil {
			return engine.Stringify(content)
		}
	}
	if text, ok := first["text"]; ok && text != nil {
		return engine.Stringify(text)
	}
	return ""
}

// OllamaExecutor calls a local Ollama server's generate endpoint with a
// prompt template rendered against the run context.
type OllamaExecutor struct {
	client *http.Client
	cfg    OllamaConfig
	logger *slog.Logger
}

// NewOllamaExecutor creates an OLLAMA node executor.
func NewOllamaExecutor(client *http.Client, cfg OllamaConfig, logger *slog.Logger) *OllamaExecutor {
	if client == nil {
		client = &http.Client{Timeout: 2 * defaultHTTPTimeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultOllamaMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaExecutor{client: client, cfg: cfg, logger: logger}
}

func (e *OllamaExecutor) Type() schema.NodeType { return schema.NodeTypeOllama }

func (e *OllamaExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	snapshot := in.Context.Snapshot()

	prompt := engine.Render(stringParam(in.Config, "prompt", "FlowStack prompt"), snapshot)
	model := stringParam(in.Config, "model", e.cfg.DefaultModel)

	request := map[string]any{
		"model":       model,
		"prompt":      prompt,
		"stream":      false,
		"num_predict": e.cfg.MaxTokens,
		"temperature": 0.7,
	}
	response, err := postJSON(ctx, e.client, e.cfg.BaseURL+"/api/generate", request, nil)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"Ollama call failed: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}

	if model == "" {
		model = "default"
	}
	e.logger.InfoContext(ctx, "ollama node invoked", "model", model)
	return &engine.Result{
		Output: map[string]any{
			in.Node.Key + "::response": engine.Stringify(response["response"]),
			"model":                    model,
			"prompt":                   prompt,
		},
		Message: "ollama response",
	}, nil
}

// postJSON posts a JSON payload and decodes a JSON object response.
// Non-2xx statuses are errors carrying the status and body prefix.
func postJSON(ctx context.Context, client *http.Client, url string, payload map[string]any, headers map[string]string) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxResponseBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := string(respBody)
		if len(preview) > 512 {
			preview = preview[:512]
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, preview)
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}
