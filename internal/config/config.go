// Package config loads the relay configuration from the environment, with an
// optional YAML file underneath. Environment variables always win over file
// values so that deployments can override a checked-in config.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names. The three secrets are required; the process
// refuses to start without them.
const (
	EnvBotToken      = "TELEGRAM_BOT_TOKEN"
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvWebhookSecret = "TELEGRAM_WEBHOOK_SECRET"
	EnvListenAddr    = "LISTEN_ADDR"
	EnvPublicURL     = "PUBLIC_URL"
	EnvGeminiURL     = "GEMINI_URL"
	EnvParseMode     = "PARSE_MODE"
	EnvLogLevel      = "LOG_LEVEL"
)

// Duration wraps time.Duration so YAML configs can write values like "20s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"20s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the process-wide immutable configuration. It is loaded once at
// startup and injected into the handler; nothing mutates it afterwards.
type Config struct {
	BotToken      string `yaml:"botToken"`
	GeminiAPIKey  string `yaml:"geminiApiKey"`
	WebhookSecret string `yaml:"webhookSecret"`

	ListenAddr  string `yaml:"listenAddr"`
	WebhookPath string `yaml:"webhookPath"`
	PublicURL   string `yaml:"publicUrl"`

	GeminiURL string `yaml:"geminiUrl"`
	ParseMode string `yaml:"parseMode"`
	LogLevel  string `yaml:"logLevel"`

	CompleteTimeout Duration `yaml:"completeTimeout"`
	SendTimeout     Duration `yaml:"sendTimeout"`
}

func Defaults() *Config {
	return &Config{
		ListenAddr:      ":8080",
		WebhookPath:     "/telegram",
		ParseMode:       "Markdown",
		LogLevel:        "info",
		CompleteTimeout: Duration(60 * time.Second),
		SendTimeout:     Duration(20 * time.Second),
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// the environment, in that order of precedence (environment last, wins).
// A .env file in the working directory is honored for local runs; variables
// already set in the environment take precedence over it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.BotToken, EnvBotToken)
	setString(&cfg.GeminiAPIKey, EnvGeminiKey)
	setString(&cfg.WebhookSecret, EnvWebhookSecret)
	setString(&cfg.ListenAddr, EnvListenAddr)
	setString(&cfg.PublicURL, EnvPublicURL)
	setString(&cfg.GeminiURL, EnvGeminiURL)
	setString(&cfg.ParseMode, EnvParseMode)
	setString(&cfg.LogLevel, EnvLogLevel)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks that the config has usable values. The three credentials
// are hard requirements: without any one of them the relay cannot serve.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.BotToken == "" {
		errs = append(errs, EnvBotToken+" (botToken) is required")
	}
	if cfg.GeminiAPIKey == "" {
		errs = append(errs, EnvGeminiKey+" (geminiApiKey) is required")
	}
	if cfg.WebhookSecret == "" {
		errs = append(errs, EnvWebhookSecret+" (webhookSecret) is required")
	}
	if cfg.ListenAddr == "" {
		errs = append(errs, "listenAddr must not be empty")
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		errs = append(errs, "webhookPath must start with /")
	}
	switch cfg.ParseMode {
	case "", "Markdown", "MarkdownV2", "HTML":
		// valid
	default:
		errs = append(errs, "parseMode must be one of: Markdown, MarkdownV2, HTML")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "logLevel must be one of: debug, info, warn, error")
	}
	if cfg.CompleteTimeout <= 0 {
		errs = append(errs, "completeTimeout must be positive")
	}
	if cfg.SendTimeout <= 0 {
		errs = append(errs, "sendTimeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
