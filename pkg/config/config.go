// Package config provides unified configuration for the thinkstream gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (THINKSTREAM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/thinkstream/pkg/provider"
)

// Config holds all configuration for the thinkstream gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Provider      ProviderConfig      `yaml:"provider"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (streams are unbounded)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
}

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Kind        string        `yaml:"kind"`     // openai, ollama, zhipu, openrouter, siliconflow, deepseek
	Endpoint    string        `yaml:"endpoint"` // default: the kind's public endpoint
	APIKey      string        `yaml:"api_key"`
	APIKeyFile  string        `yaml:"api_key_file"` // _file variant for api_key
	Model       string        `yaml:"model"`        // required
	Temperature float64       `yaml:"temperature"`  // default: 0.7
	TopP        float64       `yaml:"top_p"`        // default: 0.9
	MaxTokens   int           `yaml:"max_tokens"`   // default: 8192
	Timeout     time.Duration `yaml:"timeout"`      // default: 120s
	MaxRetries  int           `yaml:"max_retries"`  // default: 0 (no retries)
}

// AuthConfig holds caller authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey" or "jwt", default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`      // for type=jwt
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string   `yaml:"key" json:"key"`
	KeyFile string   `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject string   `yaml:"subject" json:"subject"`
	Scopes  []string `yaml:"scopes" json:"scopes"`
}

// JWTConfig holds bearer JWT verification settings.
type JWTConfig struct {
	Secret       string `yaml:"secret"`
	SecretFile   string `yaml:"secret_file"` // _file variant for secret
	JWKSURL      string `yaml:"jwks_url"`
	Issuer       string `yaml:"issuer"`
	Audience     string `yaml:"audience"`
	SubjectClaim string `yaml:"subject_claim"` // default: "sub"
	ScopesClaim  string `yaml:"scopes_claim"`  // default: "scope"
}

// RateLimitConfig bounds requests per authenticated subject.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
}

// LoggingConfig controls the process logger. THINKSTREAM_LOG_LEVEL and
// THINKSTREAM_DEBUG take precedence over these values.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma separated debug categories
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Provider: ProviderConfig{
			Kind:        string(provider.KindOpenAI),
			Temperature: provider.DefaultTemperature,
			TopP:        provider.DefaultTopP,
			MaxTokens:   provider.DefaultMaxTokens,
			Timeout:     provider.DefaultTimeout,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// ProviderSettings converts the provider section into a provider.Config.
// Unknown kinds resolve to the OpenAI-compatible adapter.
func (c *Config) ProviderSettings() provider.Config {
	p := c.Provider
	return provider.Config{
		Kind:        provider.ParseKind(p.Kind),
		Endpoint:    p.Endpoint,
		APIKey:      p.APIKey,
		Model:       p.Model,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		MaxTokens:   p.MaxTokens,
		Timeout:     p.Timeout,
		MaxRetries:  p.MaxRetries,
	}
}
