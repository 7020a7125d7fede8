package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all flowstack server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	DBPath     string `json:"db_path"`
	LogLevel   string `json:"log_level"`

	PoolCoreSize  int `json:"pool_core_size"`
	PoolMaxSize   int `json:"pool_max_size"`
	PoolQueueSize int `json:"pool_queue_size"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	OpenAIBaseURL string `json:"openai_base_url"`
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIModel   string `json:"openai_model"`

	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model"`

	// VaultPassphrase enables the secrets vault. The AES key is derived
	// from the passphrase and salt; without it /secrets is disabled.
	VaultPassphrase string `json:"vault_passphrase"`
	VaultSalt       string `json:"vault_salt"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:    ":4200",
		DBPath:        filepath.Join(flowstackDir(), "flowstack.db"),
		LogLevel:      "info",
		PoolCoreSize:  4,
		PoolMaxSize:   16,
		PoolQueueSize: 200,
		SMTPHost:      "localhost",
		SMTPPort:      25,
	}
}

func flowstackDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowstack"
	}
	return filepath.Join(home, ".flowstack")
}

func settingsPath() string {
	return filepath.Join(flowstackDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	envStr("FLOWSTACK_LISTEN_ADDR", &cfg.ListenAddr)
	envStr("FLOWSTACK_DB_PATH", &cfg.DBPath)
	envStr("FLOWSTACK_LOG_LEVEL", &cfg.LogLevel)
	envInt("FLOWSTACK_POOL_CORE_SIZE", &cfg.PoolCoreSize)
	envInt("FLOWSTACK_POOL_MAX_SIZE", &cfg.PoolMaxSize)
	envInt("FLOWSTACK_POOL_QUEUE_SIZE", &cfg.PoolQueueSize)
	envStr("FLOWSTACK_SMTP_HOST", &cfg.SMTPHost)
	envInt("FLOWSTACK_SMTP_PORT", &cfg.SMTPPort)
	envStr("FLOWSTACK_SMTP_USERNAME", &cfg.SMTPUsername)
	envStr("FLOWSTACK_SMTP_PASSWORD", &cfg.SMTPPassword)
	envStr("FLOWSTACK_SMTP_FROM", &cfg.SMTPFrom)
	envStr("FLOWSTACK_OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	envStr("FLOWSTACK_OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	envStr("FLOWSTACK_OPENAI_MODEL", &cfg.OpenAIModel)
	envStr("FLOWSTACK_OLLAMA_BASE_URL", &cfg.OllamaBaseURL)
	envStr("FLOWSTACK_OLLAMA_MODEL", &cfg.OllamaModel)
	envStr("FLOWSTACK_VAULT_PASSPHRASE", &cfg.VaultPassphrase)
	envStr("FLOWSTACK_VAULT_SALT", &cfg.VaultSalt)

	return cfg
}
