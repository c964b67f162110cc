package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rhuss/thinkstream/pkg/api"
	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/provider"
)

// Compile-time check that Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// Client performs HTTP requests against an OpenAI-compatible Chat
// Completions backend.
type Client struct {
	httpClient *http.Client
	cfg        provider.Config
	baseURL    string
}

// New creates a Client for the given config. The config's Kind is kept as
// the provider name, so a DeepSeek client reports "deepseek".
func New(cfg provider.Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = provider.DefaultTimeout
	}
	if cfg.Kind == "" {
		cfg.Kind = provider.KindOpenAI
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:     cfg,
		baseURL: cfg.BaseURL(),
	}
}

// Name returns the backend family name.
func (c *Client) Name() string {
	return string(c.cfg.Kind)
}

// Chat performs non-streaming inference against the Chat Completions endpoint.
func (c *Client) Chat(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (*api.ChatResponse, error) {
	httpResp, err := c.send(ctx, c.httpClient, c.buildRequest(msgs, opts, false))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}
	if len(chatResp.Choices) == 0 {
		return nil, api.NewServerError("backend response contains no choices")
	}

	msg := chatResp.Choices[0].Message
	resp := &api.ChatResponse{
		Model:     chatResp.Model,
		Text:      msg.Content,
		Reasoning: msg.ReasoningContent,
	}
	if resp.Model == "" {
		resp.Model = c.cfg.Model
	}
	if chatResp.Usage != nil {
		resp.Usage = api.Usage{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:  chatResp.Usage.TotalTokens,
		}
	}
	return resp, nil
}

// ChatStream returns the answer text of a streaming completion.
func (c *Client) ChatStream(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.stream(ctx, msgs, opts, provider.ModeAnswer)
}

// ChatStreamAPI returns the tagged normalized stream of a streaming completion.
func (c *Client) ChatStreamAPI(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.stream(ctx, msgs, opts, provider.ModeTagged)
}

// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (c *Client) stream(ctx context.Context, msgs []api.Message, opts api.ChatOptions, mode provider.Mode) (io.ReadCloser, error) {
	streamClient := &http.Client{
		Transport: c.httpClient.Transport,
	}

	httpResp, err := c.send(ctx, streamClient, c.buildRequest(msgs, opts, true))
	if err != nil {
		return nil, err
	}
	return provider.NormalizeResponse(ctx, c.cfg.Kind, c.Name(), httpResp, mode)
}

// ListModels returns available models from the backend by querying
// the {base}/models endpoint.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, provider.MapHTTPError(httpResp)
	}

	var modelsResp ChatModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	models := make([]api.ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, api.ModelInfo{
			ID:      m.ID,
			OwnedBy: m.OwnedBy,
		})
	}
	return models, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) buildRequest(msgs []api.Message, opts api.ChatOptions, stream bool) *ChatCompletionRequest {
	s := c.cfg.Sampling(opts)
	req := &ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    make([]ChatMessage, 0, len(msgs)),
		Temperature: s.Temperature,
		TopP:        s.TopP,
		MaxTokens:   s.MaxTokens,
		Stream:      stream,
	}
	if stream {
		req.SendReasoning = true
		req.Reasoning = true
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return req
}

// send posts chatReq, retrying connection failures, 429 and 5xx answers
// per the configured retry budget.
func (c *Client) send(ctx context.Context, hc *http.Client, chatReq *ChatCompletionRequest) (*http.Response, error) {
	return provider.SendWithRetry(ctx, c.Name(), c.cfg.MaxRetries, func() (*http.Response, error) {
		return c.sendOnce(ctx, hc, chatReq)
	})
}

// sendOnce posts a chat request and returns the response when its status is
// 2xx. On any other status the body is consumed for an error message and
// closed.
func (c *Client) sendOnce(ctx context.Context, hc *http.Client, chatReq *ChatCompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if chatReq.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	if debug.TraceIsEnabled("providers") {
		debug.Trace("providers", "backend request", "url", url, "body", string(body))
	} else {
		debug.Log("providers", "backend request",
			"url", url, "model", chatReq.Model, "messages", len(chatReq.Messages), "stream", chatReq.Stream)
	}

	start := time.Now()
	httpResp, err := hc.Do(httpReq)
	if err != nil {
		provider.ObserveRequest(c.Name(), c.cfg.Model, start, 0)
		return nil, provider.MapNetworkError(err)
	}
	provider.ObserveRequest(c.Name(), c.cfg.Model, start, httpResp.StatusCode)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, provider.MapHTTPError(httpResp)
	}
	return httpResp, nil
}
