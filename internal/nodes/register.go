package nodes

import (
	"log/slog"
	"net/http"

	"github.com/flowstack/flowstack/internal/engine"
)

// Config carries the external collaborators the built-in executors need.
type Config struct {
	HTTPClient *http.Client
	Mailer     Mailer
	OpenAI     OpenAIConfig
	Ollama     OllamaConfig
	Secrets    SecretSource
	Logger     *slog.Logger
}

// RegisterAll registers every built-in node executor on the registry.
// Called once at startup; a duplicate type is a startup error.
func RegisterAll(r *engine.Registry, cfg Config) error {
	if cfg.Mailer == nil {
		cfg.Mailer = NewSMTPMailer(SMTPConfig{Host: "localhost"})
	}
	chatGPT := NewChatGPTExecutor(cfg.HTTPClient, cfg.OpenAI, cfg.Logger)
	if cfg.Secrets != nil {
		chatGPT.SetSecretSource(cfg.Secrets)
	}
	executors := []engine.NodeExecutor{
		NewInputExecutor(cfg.Logger),
		NewJavaScriptExecutor(cfg.Logger),
		NewPythonExecutor(cfg.Logger),
		NewHTTPExecutor(cfg.HTTPClient, cfg.Logger),
		NewEmailExecutor(cfg.Mailer, cfg.Logger),
		chatGPT,
		NewOllamaExecutor(cfg.HTTPClient, cfg.Ollama, cfg.Logger),
		NewIfElseExecutor(cfg.Logger),
		NewTransformExecutor(cfg.Logger),
		NewOutputExecutor(cfg.Logger),
		NewNotifyExecutor(cfg.Logger),
	}
	for _, exec := range executors {
		if err := r.Register(exec); err != nil {
			return err
		}
	}
	return nil
}
