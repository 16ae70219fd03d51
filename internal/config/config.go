package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjawhar/transcript-viewer/internal/llm"
)

// EnvPrefix is the namespace prefix for all transcript viewer environment variables.
const EnvPrefix = "TRANSCRIPT_VIEWER_"

const defaultDelay = 2 * time.Second

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	StartDelay     string `yaml:"start_delay"`
	RevealInterval string `yaml:"reveal_interval"`
	// ArchiveDBPath enables the SQLite archive of completed sessions when set.
	ArchiveDBPath string `yaml:"archive_db_path"`
	// ExportDir enables markdown export of completed sessions when set.
	ExportDir string `yaml:"export_dir"`
	// SummaryModel is "provider/model_name"; provider is openai, anthropic or gemini.
	SummaryModel string `yaml:"summary_model"`
	// SummaryMaxTokens caps the length of a generated summary.
	SummaryMaxTokens int    `yaml:"summary_max_tokens"`
	LogLevel         string `yaml:"log_level"`

	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		StartDelay:       "2s",
		RevealInterval:   "2s",
		SummaryModel:     "openai/gpt-4o-mini",
		SummaryMaxTokens: llm.DefaultMaxTokens,
		LogLevel:         "info",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	warnings := applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings = append(warnings, validate(&cfg)...)
	return cfg, warnings, nil
}

// ParsedStartDelay returns StartDelay, falling back to 2s if invalid.
func (c *Config) ParsedStartDelay() time.Duration {
	return parseDelay(c.StartDelay)
}

// ParsedRevealInterval returns RevealInterval, falling back to 2s if invalid.
func (c *Config) ParsedRevealInterval() time.Duration {
	return parseDelay(c.RevealInterval)
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseDelay(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultDelay
	}
	return d
}

func applyEnvOverrides(cfg *Config) []string {
	overrides := []struct {
		key string
		dst *string
	}{
		{"LISTEN_ADDR", &cfg.ListenAddr},
		{"START_DELAY", &cfg.StartDelay},
		{"REVEAL_INTERVAL", &cfg.RevealInterval},
		{"ARCHIVE_DB_PATH", &cfg.ArchiveDBPath},
		{"EXPORT_DIR", &cfg.ExportDir},
		{"SUMMARY_MODEL", &cfg.SummaryModel},
		{"LOG_LEVEL", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if v := os.Getenv(EnvPrefix + o.key); v != "" {
			*o.dst = v
		}
	}

	var warnings []string
	if v := os.Getenv(EnvPrefix + "SUMMARY_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %sSUMMARY_MAX_TOKENS %q; ignoring.", EnvPrefix, v))
		} else {
			cfg.SummaryMaxTokens = n
		}
	}
	return warnings
}

func loadSecrets(cfg *Config) {
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
}

// SummaryAPIKey returns the secret for an LLM provider, or "" if unset.
func (c *Config) SummaryAPIKey(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

func apiKeyEnv(provider string) string {
	return EnvPrefix + strings.ToUpper(provider) + "_API_KEY"
}

func validate(cfg *Config) []string {
	var warnings []string

	provider, _, err := llm.ParseModel(cfg.SummaryModel)
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("Invalid summary_model %q (expected provider/model_name); session summaries are disabled.", cfg.SummaryModel))
	case !llm.Supported(provider):
		warnings = append(warnings, fmt.Sprintf("Unsupported summary provider %q; session summaries are disabled.", provider))
	case cfg.SummaryAPIKey(provider) == "":
		warnings = append(warnings, fmt.Sprintf("%s API key not configured; session summaries are disabled. Set %s.", provider, apiKeyEnv(provider)))
	}
	if cfg.SummaryMaxTokens <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid summary_max_tokens %d; using default %d.", cfg.SummaryMaxTokens, llm.DefaultMaxTokens))
		cfg.SummaryMaxTokens = llm.DefaultMaxTokens
	}
	for _, d := range []struct{ name, value string }{
		{"start_delay", cfg.StartDelay},
		{"reveal_interval", cfg.RevealInterval},
	} {
		if parsed, err := time.ParseDuration(d.value); err != nil || parsed <= 0 {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q; using default %s.", d.name, d.value, defaultDelay))
		}
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = ":8080"
		warnings = append(warnings, "Empty listen_addr; using :8080.")
	}

	return warnings
}
