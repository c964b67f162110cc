package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/thinkstream/pkg/provider"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default server.read_timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("default server.write_timeout = %v, want 0", cfg.Server.WriteTimeout)
	}
	if cfg.Provider.Kind != "openai" {
		t.Errorf("default provider.kind = %q, want \"openai\"", cfg.Provider.Kind)
	}
	if cfg.Provider.Temperature != 0.7 || cfg.Provider.TopP != 0.9 || cfg.Provider.MaxTokens != 8192 {
		t.Errorf("default sampling = %v/%v/%d", cfg.Provider.Temperature, cfg.Provider.TopP, cfg.Provider.MaxTokens)
	}
	if cfg.Auth.Type != "none" {
		t.Errorf("default auth.type = %q, want \"none\"", cfg.Auth.Type)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("default metrics = %+v", cfg.Observability.Metrics)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
server:
  port: 9090
  read_timeout: 60s
  write_timeout: 10m
provider:
  kind: ollama
  endpoint: http://gpu-box:11434/v1
  model: qwen3:8b
  temperature: 0.3
  max_tokens: 2048
  max_retries: 2
auth:
  type: apikey
  api_keys:
    - key: sk-key-1
      subject: alice
      scopes: [chat, models]
    - key: sk-key-2
  rate_limit:
    requests_per_minute: 60
logging:
  level: DEBUG
  format: json
  debug: providers,streaming
observability:
  metrics:
    path: /internal/metrics
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.WriteTimeout != 10*time.Minute {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Provider.Kind != "ollama" || cfg.Provider.Model != "qwen3:8b" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.Temperature != 0.3 || cfg.Provider.MaxTokens != 2048 {
		t.Errorf("sampling = %v/%d", cfg.Provider.Temperature, cfg.Provider.MaxTokens)
	}
	if got := cfg.ProviderSettings().MaxRetries; got != 2 {
		t.Errorf("provider max retries = %d, want 2", got)
	}
	if cfg.Provider.TopP != 0.9 {
		t.Errorf("provider.top_p = %v, want default 0.9 retained", cfg.Provider.TopP)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0].Subject != "alice" || len(cfg.Auth.APIKeys[0].Scopes) != 2 {
		t.Errorf("auth.api_keys = %+v", cfg.Auth.APIKeys)
	}
	if cfg.Auth.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("auth.rate_limit = %+v", cfg.Auth.RateLimit)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Debug != "providers,streaming" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/internal/metrics" {
		t.Errorf("metrics = %+v", cfg.Observability.Metrics)
	}

	ps := cfg.ProviderSettings()
	if ps.Kind != provider.KindOllama || ps.BaseURL() != "http://gpu-box:11434/api" {
		t.Errorf("ProviderSettings() = %+v (base %q)", ps, ps.BaseURL())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeTemp(t, "config-*.yaml", "provider:\n  model: m\n  modle: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Setenv("THINKSTREAM_MODEL", "gpt-4o")
	cfg, err := Load(writeTemp(t, "config-*.yaml", ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default", cfg.Server.Port)
	}
}

func TestEnvOverride(t *testing.T) {
	yamlContent := `
server:
  port: 9090
provider:
  kind: openai
  model: gpt-4o
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Setenv("THINKSTREAM_PORT", "7070")
	t.Setenv("THINKSTREAM_PROVIDER", "deepseek")
	t.Setenv("THINKSTREAM_MODEL", "deepseek-reasoner")
	t.Setenv("THINKSTREAM_ENDPOINT", "https://api.deepseek.com/v1")
	t.Setenv("THINKSTREAM_API_KEY", "sk-env")
	t.Setenv("THINKSTREAM_TEMPERATURE", "0.1")
	t.Setenv("THINKSTREAM_MAX_TOKENS", "512")
	t.Setenv("THINKSTREAM_AUTH_TYPE", "apikey")
	t.Setenv("THINKSTREAM_API_KEYS", `[{"key":"sk-caller","subject":"ci","scopes":["chat"]}]`)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070 (env override)", cfg.Server.Port)
	}
	if cfg.Provider.Kind != "deepseek" || cfg.Provider.Model != "deepseek-reasoner" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.APIKey != "sk-env" || cfg.Provider.Endpoint != "https://api.deepseek.com/v1" {
		t.Errorf("provider credentials = %q @ %q", cfg.Provider.APIKey, cfg.Provider.Endpoint)
	}
	if cfg.Provider.Temperature != 0.1 || cfg.Provider.MaxTokens != 512 {
		t.Errorf("sampling = %v/%d", cfg.Provider.Temperature, cfg.Provider.MaxTokens)
	}
	if cfg.Auth.Type != "apikey" || len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0].Subject != "ci" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}

func TestEnvOverride_Malformed(t *testing.T) {
	tests := map[string]string{
		"THINKSTREAM_PORT":        "eighty",
		"THINKSTREAM_TEMPERATURE": "warm",
		"THINKSTREAM_MAX_TOKENS":  "lots",
		"THINKSTREAM_API_KEYS":    "not json",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("THINKSTREAM_MODEL", "m")
			t.Setenv(name, value)

			_, err := Load(writeTemp(t, "config-*.yaml", ""))
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Errorf("err = %v, want mention of %s", err, name)
			}
		})
	}
}

func TestFileReference(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "  sk-from-file-123  \n")
	keyFile := writeTemp(t, "apikey-*.txt", "  sk-key-from-file  \n")
	jwtFile := writeTemp(t, "jwt-*.txt", "shared-secret\n")

	yamlContent := `
provider:
  model: gpt-4o
  api_key_file: ` + secretFile + `
auth:
  type: jwt
  api_keys:
    - key_file: ` + keyFile + `
      subject: file-user
  jwt:
    secret_file: ` + jwtFile + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Provider.APIKey != "sk-from-file-123" {
		t.Errorf("provider.api_key = %q, want trimmed file content", cfg.Provider.APIKey)
	}
	if cfg.Auth.APIKeys[0].Key != "sk-key-from-file" {
		t.Errorf("auth.api_keys[0].key = %q", cfg.Auth.APIKeys[0].Key)
	}
	if cfg.Auth.JWT.Secret != "shared-secret" {
		t.Errorf("auth.jwt.secret = %q", cfg.Auth.JWT.Secret)
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "sk-from-file")

	yamlContent := `
provider:
  model: gpt-4o
  api_key: sk-explicit
  api_key_file: ` + secretFile + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.APIKey != "sk-explicit" {
		t.Errorf("provider.api_key = %q, want explicit value", cfg.Provider.APIKey)
	}
}

func TestFileReferenceMissingFile(t *testing.T) {
	yamlContent := `
provider:
  model: gpt-4o
  api_key_file: /nonexistent/secret
`
	_, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err == nil || !strings.Contains(err.Error(), "provider.api_key_file") {
		t.Errorf("err = %v, want provider.api_key_file error", err)
	}
}

func TestFileDiscovery(t *testing.T) {
	envFile := writeTemp(t, "envconfig-*.yaml", "provider:\n  model: from-env-config\n")
	t.Setenv("THINKSTREAM_CONFIG", envFile)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.Model != "from-env-config" {
		t.Errorf("provider.model = %q, want value from THINKSTREAM_CONFIG", cfg.Provider.Model)
	}

	explicit := writeTemp(t, "explicit-*.yaml", "provider:\n  model: from-explicit\n")
	cfg, err = Load(explicit)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.Model != "from-explicit" {
		t.Errorf("provider.model = %q, explicit path must win", cfg.Provider.Model)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing model", func(c *Config) { c.Provider.Model = "" }, "provider.model is required"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad temperature", func(c *Config) { c.Provider.Temperature = 3 }, "provider.temperature"},
		{"bad top_p", func(c *Config) { c.Provider.TopP = 1.5 }, "provider.top_p"},
		{"bad max_tokens", func(c *Config) { c.Provider.MaxTokens = 0 }, "provider.max_tokens"},
		{"negative max_retries", func(c *Config) { c.Provider.MaxRetries = -1 }, "provider.max_retries"},
		{"unknown auth type", func(c *Config) { c.Auth.Type = "oauth" }, "auth.type"},
		{"apikey without keys", func(c *Config) { c.Auth.Type = "apikey" }, "auth.api_keys must not be empty"},
		{"apikey entry without key", func(c *Config) {
			c.Auth.Type = "apikey"
			c.Auth.APIKeys = []APIKeyConfig{{Subject: "x"}}
		}, "auth.api_keys[0]"},
		{"jwt without key source", func(c *Config) { c.Auth.Type = "jwt" }, "auth.jwt"},
		{"jwt with jwks", func(c *Config) {
			c.Auth.Type = "jwt"
			c.Auth.JWT.JWKSURL = "https://idp/jwks"
		}, ""},
		{"negative rate limit", func(c *Config) { c.Auth.RateLimit.RequestsPerMinute = -1 }, "rate_limit"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad metrics path", func(c *Config) { c.Observability.Metrics.Path = "metrics" }, "observability.metrics.path"},
		{"unknown provider kind is not an error", func(c *Config) { c.Provider.Kind = "groq" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Provider.Model = "gpt-4o"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidation_ReportsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	cfg.Auth.Type = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "provider.model", "auth.type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return f.Name()
}
