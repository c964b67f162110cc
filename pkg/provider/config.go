package provider

import (
	"strings"
	"time"

	"github.com/rhuss/thinkstream/pkg/api"
)

// Model defaults applied when neither the config nor the call overrides them.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 8192
	DefaultTimeout     = 120 * time.Second
)

// Config holds the settings for one backend.
type Config struct {
	// Kind selects the backend family.
	Kind Kind

	// Endpoint is the API base URL. Empty means the family default.
	Endpoint string

	// APIKey is sent as a bearer token (optional for ollama).
	APIKey string

	// Model is the model name requested from the backend.
	Model string

	Temperature float64
	TopP        float64
	MaxTokens   int

	// Timeout for non-streaming HTTP requests. Streams are bounded by the
	// request context instead.
	Timeout time.Duration

	// MaxRetries bounds retries of a failed backend request. Zero disables
	// retrying.
	MaxRetries int
}

// DefaultConfig returns a Config with the model defaults filled in.
func DefaultConfig(kind Kind, model string) Config {
	return Config{
		Kind:        kind,
		Model:       model,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}

// BaseURL returns the normalized endpoint for the configured kind.
func (c Config) BaseURL() string {
	ep := c.Endpoint
	if ep == "" {
		ep = c.Kind.DefaultEndpoint()
	}
	return NormalizeEndpoint(c.Kind, ep)
}

// Sampling is the effective set of sampling parameters for one call.
type Sampling struct {
	Temperature float64
	TopP        float64
	TopK        *int
	MaxTokens   int
}

// Sampling merges per-call overrides over the configured defaults. Unset
// (zero or negative) config values fall back to the package defaults; an
// explicit per-call value, including zero, is sent as given.
func (c Config) Sampling(opts api.ChatOptions) Sampling {
	s := Sampling{
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxTokens:   c.MaxTokens,
		TopK:        opts.TopK,
	}
	if s.Temperature <= 0 {
		s.Temperature = DefaultTemperature
	}
	if s.TopP <= 0 {
		s.TopP = DefaultTopP
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature != nil {
		s.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		s.TopP = *opts.TopP
	}
	if opts.MaxTokens != nil {
		s.MaxTokens = *opts.MaxTokens
	}
	return s
}

// NormalizeEndpoint rewrites a user-supplied endpoint into the API base
// the adapters expect. Ollama's OpenAI-compatible "/v1" suffix becomes the
// native "/api", and a full "/chat/completions" URL is cut back to its base.
func NormalizeEndpoint(kind Kind, endpoint string) string {
	ep := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	ep = strings.TrimSuffix(ep, "/chat/completions")
	if kind == KindOllama && strings.HasSuffix(ep, "/v1") {
		ep = strings.TrimSuffix(ep, "/v1") + "/api"
	}
	return ep
}
