package transport

import (
	"context"
	"io"

	"github.com/rhuss/thinkstream/pkg/api"
)

// ChatHandler serves chat completions. *llm.Client implements it.
type ChatHandler interface {
	// Chat returns a complete, non-streamed response.
	Chat(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (*api.ChatResponse, error)

	// ChatStream returns the answer text as a stream, without reasoning.
	ChatStream(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (io.ReadCloser, error)

	// ChatStreamAPI returns the normalized stream with reasoning wrapped
	// in <think>...</think>.
	ChatStreamAPI(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (io.ReadCloser, error)

	// ListModels returns the models the backend serves.
	ListModels(ctx context.Context) ([]api.ModelInfo, error)
}
