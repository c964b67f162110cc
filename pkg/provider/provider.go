package provider

import (
	"context"
	"io"

	"github.com/rhuss/thinkstream/pkg/api"
)

// Provider abstracts an LLM chat backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string

	// Chat performs a non-streaming completion.
	Chat(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (*api.ChatResponse, error)

	// ChatStream opens a streaming completion and returns the answer text
	// only. Reasoning deltas are dropped.
	ChatStream(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error)

	// ChatStreamAPI opens a streaming completion and returns the normalized
	// stream, with reasoning wrapped in <think>...</think>.
	ChatStreamAPI(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error)

	// ListModels returns the models available at the backend.
	ListModels(ctx context.Context) ([]api.ModelInfo, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
