// Package llm is the client-facing entry point: it resolves a provider
// configuration to a concrete backend adapter once, then offers plain,
// streaming, and reasoning-aware completions over it.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rhuss/thinkstream/pkg/api"
	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/llmoutput"
	"github.com/rhuss/thinkstream/pkg/provider"
	"github.com/rhuss/thinkstream/pkg/provider/ollama"
	"github.com/rhuss/thinkstream/pkg/provider/openaicompat"
)

// NewProvider builds the adapter for cfg.Kind. The kind is matched
// case-insensitively; an empty or unknown kind uses the OpenAI-compatible
// adapter.
func NewProvider(cfg provider.Config) (provider.Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("provider %q: model is required", cfg.Kind)
	}

	if cfg.Kind != "" && !provider.IsKnown(string(cfg.Kind)) {
		debug.Log("providers", "unknown provider kind, using openai-compatible adapter", "kind", cfg.Kind)
	}
	cfg.Kind = provider.ParseKind(string(cfg.Kind))

	if cfg.Kind == provider.KindOllama {
		return ollama.New(cfg), nil
	}
	return openaicompat.New(cfg), nil
}

// Client wraps a Provider with prompt handling and reasoning extraction.
type Client struct {
	p provider.Provider
}

// New creates a Client for cfg.
func New(cfg provider.Config) (*Client, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{p: p}, nil
}

// NewWithProvider wraps an existing Provider.
func NewWithProvider(p provider.Provider) *Client {
	return &Client{p: p}
}

// Provider returns the underlying adapter.
func (c *Client) Provider() provider.Provider {
	return c.p
}

// Chat performs a non-streaming completion.
func (c *Client) Chat(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (*api.ChatResponse, error) {
	return c.p.Chat(ctx, prompt.AsMessages(), opts)
}

// ChatStream streams the answer text only.
func (c *Client) ChatStream(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.p.ChatStream(ctx, prompt.AsMessages(), opts)
}

// ChatStreamAPI streams the normalized output with reasoning wrapped in
// <think>...</think>.
func (c *Client) ChatStreamAPI(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.p.ChatStreamAPI(ctx, prompt.AsMessages(), opts)
}

// GetResponse returns the completion text as the backend produced it.
func (c *Client) GetResponse(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (string, error) {
	resp, err := c.Chat(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GetResponseWithCOT returns the answer and its chain of thought. Inline
// think tags at the start of the text take precedence over a separate
// reasoning field.
func (c *Client) GetResponseWithCOT(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (answer, cot string, err error) {
	resp, err := c.Chat(ctx, prompt, opts)
	if err != nil {
		return "", "", err
	}

	answer, cot = SplitResponse(resp)
	return answer, cot, nil
}

// SplitResponse separates a completion into answer and chain of thought.
func SplitResponse(resp *api.ChatResponse) (answer, cot string) {
	answer, cot = resp.Text, resp.Reasoning
	if llmoutput.HasThinkPrefix(answer) {
		cot, answer = llmoutput.Split(answer)
	}

	answer = strings.TrimPrefix(answer, "\n\n")
	cot = strings.TrimSuffix(cot, "\n\n")
	return answer, cot
}

// ListModels returns the models available at the backend.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	return c.p.ListModels(ctx)
}

// Close releases the provider.
func (c *Client) Close() error {
	return c.p.Close()
}
