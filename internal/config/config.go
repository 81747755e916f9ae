package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	CommanderWhatsApp  = "whatsapp"
	CommanderDummy     = "dummy"
	ProviderOpenRouter = "openrouter"
	ProviderDummy      = "dummy"
)

// Config holds the bot configuration read from the environment.
type Config struct {
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterURL     string
	OpenRouterReferer string
	OpenRouterTitle   string
	Temperature       *float32
	MaxTokens         *int

	CompletionTimeoutSeconds int
	SessionDBPath            string
	DBPath                   string
	LogLevel                 string
	LogFormat                string

	Commander            string
	ModelProvider        string
	DummyCommanderScript string
	DummySendScript      string
	DummyProviderScript  string

	ShellEnabled        bool
	ShellPrefix         string
	ShellAllowedSenders string
	ShellDenylist       string
	ShellTimeoutSeconds int
	ShellMaxOutputBytes int
	ShellMaxOutputLines int
}

// Load reads configuration from environment variables. Errors name the
// offending variable.
func Load() (Config, error) {
	cfg := Config{
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   envOrDefault("OPENROUTER_MODEL", "nvidia/nemotron-nano-12b-v2-vl:free"),
		OpenRouterURL:     envOrDefault("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterReferer: envOrDefault("OPENROUTER_REFERER", "https://github.com/fepfitra/mykisah"),
		OpenRouterTitle:   envOrDefault("OPENROUTER_TITLE", "MyKisah"),

		CompletionTimeoutSeconds: envIntOrDefault("MYKISAH_COMPLETION_TIMEOUT_SECONDS", 60),
		SessionDBPath:            envOrDefault("MYKISAH_SESSION_DB", "whatsapp.db"),
		DBPath:                   envOrDefault("MYKISAH_DB_PATH", "state/mykisah.db"),
		LogLevel:                 envOrDefault("MYKISAH_LOG_LEVEL", "info"),
		LogFormat:                envOrDefault("MYKISAH_LOG_FORMAT", "json"),

		Commander:            envOrDefault("MYKISAH_COMMANDER", CommanderWhatsApp),
		ModelProvider:        envOrDefault("MYKISAH_MODEL_PROVIDER", ProviderOpenRouter),
		DummyCommanderScript: envOrDefault("MYKISAH_DUMMY_COMMANDER_SCRIPT", "msg:ping"),
		DummySendScript:      envOrDefault("MYKISAH_DUMMY_SEND_SCRIPT", "ok"),
		DummyProviderScript:  envOrDefault("MYKISAH_DUMMY_PROVIDER_SCRIPT", "ok"),

		ShellEnabled:        envBoolOrDefault("MYKISAH_SHELL_ENABLED", true),
		ShellPrefix:         envOrDefault("MYKISAH_SHELL_PREFIX", "!"),
		ShellAllowedSenders: os.Getenv("MYKISAH_SHELL_ALLOWED_SENDERS"),
		ShellDenylist:       os.Getenv("MYKISAH_SHELL_DENYLIST"),
		ShellTimeoutSeconds: envIntOrDefault("MYKISAH_SHELL_TIMEOUT_SECONDS", 30),
		ShellMaxOutputBytes: envIntOrDefault("MYKISAH_SHELL_MAX_OUTPUT_BYTES", 51200),
		ShellMaxOutputLines: envIntOrDefault("MYKISAH_SHELL_MAX_OUTPUT_LINES", 2000),
	}
	// MYKISAH_DB_PATH set to an empty string disables the audit log.
	if v, ok := os.LookupEnv("MYKISAH_DB_PATH"); ok && strings.TrimSpace(v) == "" {
		cfg.DBPath = ""
	}

	if _, ok := os.LookupEnv("OPENROUTER_TEMPERATURE"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("OPENROUTER_TEMPERATURE")), 32)
		if err != nil || v < 0 || v > 2 {
			return Config{}, fmt.Errorf("OPENROUTER_TEMPERATURE must be a number between 0 and 2")
		}
		t := float32(v)
		cfg.Temperature = &t
	}
	if _, ok := os.LookupEnv("OPENROUTER_MAX_TOKENS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("OPENROUTER_MAX_TOKENS")))
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("OPENROUTER_MAX_TOKENS must be > 0")
		}
		cfg.MaxTokens = &n
	}

	switch cfg.Commander {
	case CommanderWhatsApp, CommanderDummy:
	default:
		return Config{}, fmt.Errorf("MYKISAH_COMMANDER must be %q or %q, got %q", CommanderWhatsApp, CommanderDummy, cfg.Commander)
	}
	switch cfg.ModelProvider {
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return Config{}, fmt.Errorf("OPENROUTER_API_KEY is required in environment when MYKISAH_MODEL_PROVIDER=openrouter")
		}
	case ProviderDummy:
	default:
		return Config{}, fmt.Errorf("MYKISAH_MODEL_PROVIDER must be %q or %q, got %q", ProviderOpenRouter, ProviderDummy, cfg.ModelProvider)
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("MYKISAH_LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	if cfg.CompletionTimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("MYKISAH_COMPLETION_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.ShellTimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("MYKISAH_SHELL_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.ShellMaxOutputBytes <= 0 {
		return Config{}, fmt.Errorf("MYKISAH_SHELL_MAX_OUTPUT_BYTES must be > 0")
	}
	if cfg.ShellMaxOutputLines <= 0 {
		return Config{}, fmt.Errorf("MYKISAH_SHELL_MAX_OUTPUT_LINES must be > 0")
	}
	if strings.TrimSpace(cfg.ShellPrefix) == "" {
		return Config{}, fmt.Errorf("MYKISAH_SHELL_PREFIX must not be blank")
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOrDefault returns -1 for values that do not parse, so range checks reject them.
func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}
