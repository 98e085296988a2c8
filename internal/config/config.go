package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSalesPageURL is where the call-to-action sends visitors unless
// SALES_PAGE_URL overrides it.
const DefaultSalesPageURL = "https://visibility.brightestmoment.com/defi-distribution-offer.html"

// Config holds all configuration for the Playbook server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Analytics AnalyticsConfig
	Report    ReportConfig
	Page      PageConfig
}

type ServerConfig struct {
	Port             int
	Env              string
	RateLimitPerHour int
	AdminTokenHash   string
	TrustProxy       bool
}

// DatabaseConfig configures the optional event archive. An empty URL disables it.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the shared cache. An empty URL selects the in-process cache.
type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Gemini           GeminiConfig
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnalyticsConfig configures event delivery. An empty Endpoint disables the HTTP sink.
type AnalyticsConfig struct {
	Endpoint string
	Timeout  time.Duration
}

type ReportConfig struct {
	MinDisplay     time.Duration
	StatusInterval time.Duration
	RevealInterval time.Duration
}

type PageConfig struct {
	SalesPageURL   string
	AutoStartDelay time.Duration
}

var validProviders = map[string]bool{
	"gemini":    true,
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any value is unparseable or
// invalid; every unparseable variable is named in the error. A missing
// provider credential is not an error here; see AIConfig.HasCredential.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:             env.Int("PLAYBOOK_PORT", 8080),
			Env:              env.String("PLAYBOOK_ENV", "development"),
			RateLimitPerHour: env.Int("RATE_LIMIT_PER_HOUR", 50),
			AdminTokenHash:   os.Getenv("ADMIN_TOKEN_HASH"),
			TrustProxy:       env.Bool("TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    env.Int("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.Int("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: env.Duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         env.String("AI_PROVIDER", "gemini"),
			InferenceTimeout: env.Seconds("AI_INFERENCE_TIMEOUT_SECS", 0),
			Gemini: GeminiConfig{
				APIKey: env.String("GEMINI_API_KEY", os.Getenv("VITE_GEMINI_API_KEY")),
				Model:  env.String("GEMINI_MODEL", "gemini-2.5-flash"),
			},
			Ollama: OllamaConfig{
				BaseURL: env.String("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   env.String("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: env.String("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   env.String("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  env.String("OPENAI_MODEL", "gpt-4o"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  env.String("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Analytics: AnalyticsConfig{
			Endpoint: os.Getenv("ANALYTICS_ENDPOINT"),
			Timeout:  env.Duration("ANALYTICS_TIMEOUT", 5*time.Second),
		},
		Report: ReportConfig{
			MinDisplay:     env.Duration("REPORT_MIN_DISPLAY", 3*time.Second),
			StatusInterval: env.Duration("STATUS_INTERVAL", 2500*time.Millisecond),
			RevealInterval: env.Duration("SERVICE_REVEAL_INTERVAL", 800*time.Millisecond),
		},
		Page: PageConfig{
			SalesPageURL:   env.String("SALES_PAGE_URL", DefaultSalesPageURL),
			AutoStartDelay: env.Duration("AUTO_START_DELAY", time.Second),
		},
	}

	if err := env.err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasCredential reports whether the selected provider has what it needs to
// authenticate. Ollama and vLLM run without keys.
func (c AIConfig) HasCredential() bool {
	switch c.Provider {
	case "gemini":
		return c.Gemini.APIKey != ""
	case "openai":
		return c.OpenAI.APIKey != ""
	case "anthropic":
		return c.Anthropic.APIKey != ""
	default:
		return true
	}
}

// CredentialEnv names the environment variable holding the selected provider's key.
func (c AIConfig) CredentialEnv() string {
	switch c.Provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PLAYBOOK_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, ollama, vllm, openai, anthropic; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}

	if c.Database.URL != "" && !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Analytics.Endpoint != "" {
		if err := requireHTTPURL(c.Analytics.Endpoint); err != nil {
			return fmt.Errorf("ANALYTICS_ENDPOINT %w", err)
		}
	}
	if err := requireHTTPURL(c.Page.SalesPageURL); err != nil {
		return fmt.Errorf("SALES_PAGE_URL %w", err)
	}

	if c.Report.StatusInterval <= 0 {
		return fmt.Errorf("STATUS_INTERVAL must be positive")
	}
	if c.Report.RevealInterval <= 0 {
		return fmt.Errorf("SERVICE_REVEAL_INTERVAL must be positive")
	}
	if c.Report.MinDisplay < 0 {
		return fmt.Errorf("REPORT_MIN_DISPLAY must not be negative")
	}

	return nil
}

func requireHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("must be an absolute http:// or https:// URL, got %q", raw)
	}
	return nil
}

// envReader looks up variables and records every value that fails to parse,
// so Load can report bad input instead of silently using a default.
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) invalid(key, kind, raw string) {
	r.errs = append(r.errs, fmt.Errorf("%s must be %s, got %q", key, kind, raw))
}

func (r *envReader) String(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (r *envReader) Int(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.invalid(key, "an integer", v)
		return defaultVal
	}
	return i
}

func (r *envReader) Bool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.invalid(key, "a boolean", v)
		return defaultVal
	}
	return b
}

func (r *envReader) Duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.invalid(key, "a duration such as 2500ms or 3s", v)
		return defaultVal
	}
	return d
}

// Seconds reads a whole number of seconds.
func (r *envReader) Seconds(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		r.invalid(key, "a whole number of seconds", v)
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
