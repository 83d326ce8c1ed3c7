// Package config provides configuration management for the gmail-agent server.
// Configuration is read from a YAML file laid over DefaultConfig, with
// ${VAR} references expanded before decoding and GMAIL_AGENT_* environment
// variables applied last.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "GMAIL_AGENT_"

// SupportedProviders lists the accepted llm.provider values.
var SupportedProviders = []string{"openai", "anthropic", "groq", "mistral", "ollama"}

// DefaultAllowedOrigin is the origin of the published browser extension.
const DefaultAllowedOrigin = "chrome-extension://bfpckohipmchjpolgddkbojmbgcckhld"

// Config represents the complete server configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	LLM            LLMConfig            `yaml:"llm" envPrefix:"LLM_"`
	Agent          AgentConfig          `yaml:"agent" envPrefix:"AGENT_"`
	Prompts        PromptsConfig        `yaml:"prompts"`
	Logging        LoggingConfig        `yaml:"logging" envPrefix:"LOG_"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" envPrefix:"CIRCUIT_BREAKER_"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port" env:"PORT"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout bounds writing the response. Zero disables it, which is
	// the default: model calls carry no service-side deadline.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout specifies how long to wait for in-flight requests
	// during graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// LLMConfig describes the single model endpoint this deployment talks to.
type LLMConfig struct {
	// Provider selects the backend, one of SupportedProviders. openai, groq,
	// mistral and ollama use the OpenAI SDK; anthropic goes through gollm.
	Provider string `yaml:"provider" env:"PROVIDER"`

	// Model is the name of the model to use (e.g., "gpt-4o-mini", "claude-3-haiku")
	Model string `yaml:"model" env:"MODEL"`

	// APIKey is the authentication key for the provider's API.
	// Prefer ${OPENAI_API_KEY} style references or GMAIL_AGENT_LLM_API_KEY.
	APIKey string `yaml:"api_key" env:"API_KEY"`

	// Endpoint overrides the provider base URL. For the OpenAI SDK providers
	// it is the API root (e.g. http://localhost:11434/v1 for Ollama); for
	// anthropic it replaces https://api.anthropic.com.
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// MaxContextTokens is the model context window, used to report prompt
	// utilisation. It is never used to reject a request; 0 turns prompt
	// token counting off.
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// AgentConfig holds the process-wide settings of the email pipeline.
type AgentConfig struct {
	// SystemPrompt replaces the built-in guardrail when set. It is read once
	// at start-up and never changes for the lifetime of the process.
	SystemPrompt string `yaml:"system_prompt"`

	// AllowedOrigin is the single browser-extension origin allowed by CORS.
	AllowedOrigin string `yaml:"allowed_origin" env:"ALLOWED_ORIGIN"`

	// DefaultStyle is used when a summary request carries no style parameter.
	DefaultStyle string `yaml:"default_style"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`

	// Format specifies log output format: json or text
	Format string `yaml:"format" env:"FORMAT"`
}

// CircuitBreakerConfig configures the optional breaker around backend calls.
// It is disabled by default: without it every request reaches the backend.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// MaxRequests is maximum number of requests allowed to pass through when in half-open state
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state for the circuit breaker
	Interval time.Duration `yaml:"interval"`

	// Timeout is the period of the open state until it becomes half-open
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold is the number of consecutive failures needed to trip the circuit
	FailureThreshold uint32 `yaml:"failure_threshold"`

	// TestMode indicates whether to skip Prometheus metric registration (for testing)
	TestMode bool `yaml:"test_mode"`
}

// RateLimitConfig configures the optional per-client inbound rate limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	Burst             int  `yaml:"burst"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			MaxContextTokens: 128000,
		},
		Agent: AgentConfig{
			AllowedOrigin: DefaultAllowedOrigin,
			DefaultStyle:  "short",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          false,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 30,
			Burst:             10,
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// LoadFileOrDefault behaves like LoadFile but falls back to DefaultConfig
// (plus environment overrides) when the file does not exist.
func LoadFileOrDefault(filename string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]*)\}`)

// expandEnvVars resolves ${VAR} and ${VAR:-default} references. Unset
// variables without a default expand to the empty string. A bare $NAME is
// left alone so prompts can contain literal dollar signs.
func expandEnvVars(s string) (string, error) {
	if hasUnterminatedRef(s) {
		return "", fmt.Errorf("invalid variable reference syntax")
	}

	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		key := ref[2 : len(ref)-1]
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	}), nil
}

func hasUnterminatedRef(s string) bool {
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			return false
		}
		s = s[i+2:]
		end := strings.IndexByte(s, '}')
		if end < 0 || strings.ContainsAny(s[:end], "\n$") {
			return true
		}
		s = s[end+1:]
	}
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded, err := expandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand environment variables: %w", err)
	}

	config := DefaultConfig()

	// An empty document decodes to io.EOF; defaults apply.
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// ApplyEnv overlays GMAIL_AGENT_* environment variables. Fields whose
// variable is unset keep their current value.
func (c *Config) ApplyEnv() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	if c.LLM.Provider == "" {
		return fmt.Errorf("empty LLM provider")
	}
	if !slices.Contains(SupportedProviders, c.LLM.Provider) {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	if c.LLM.Endpoint != "" {
		u, err := url.Parse(c.LLM.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid LLM endpoint %q: want an absolute URL", c.LLM.Endpoint)
		}
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("empty LLM model")
	}
	if c.LLM.MaxContextTokens < 0 {
		return fmt.Errorf("negative max context tokens: %d", c.LLM.MaxContextTokens)
	}

	if c.Agent.AllowedOrigin == "" {
		return fmt.Errorf("empty allowed origin")
	}

	if c.Prompts.ResponseFormatting.MaxLength < 0 {
		return fmt.Errorf("negative response max length: %d", c.Prompts.ResponseFormatting.MaxLength)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold == 0 {
			return fmt.Errorf("circuit breaker failure threshold must be positive")
		}
		if c.CircuitBreaker.Timeout <= 0 {
			return fmt.Errorf("circuit breaker timeout must be positive")
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate limit requests per minute must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	return nil
}
