package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/thinkstream/pkg/api"
	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/provider"
)

var _ provider.Provider = (*Client)(nil)

// Client talks to an Ollama server.
type Client struct {
	httpClient *http.Client
	cfg        provider.Config

	// apiURL is the normalized endpoint ending in /api.
	apiURL string
}

// New creates a Client. The endpoint may point at the server root, its
// /api path, or its OpenAI-compatible /v1 path.
func New(cfg provider.Config) *Client {
	cfg.Kind = provider.KindOllama
	if cfg.Timeout == 0 {
		cfg.Timeout = provider.DefaultTimeout
	}

	base := strings.TrimSuffix(cfg.BaseURL(), "/api")
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		apiURL:     base + "/api",
	}
}

// Name returns "ollama".
func (c *Client) Name() string {
	return string(provider.KindOllama)
}

// Chat performs a non-streaming chat request.
func (c *Client) Chat(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (*api.ChatResponse, error) {
	httpResp, err := c.send(ctx, c.httpClient, c.buildRequest(msgs, opts, false))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	model := chatResp.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &api.ChatResponse{
		Model:     model,
		Text:      chatResp.Message.Content,
		Reasoning: chatResp.Message.Thinking,
		Usage: api.Usage{
			InputTokens:  chatResp.PromptEvalCount,
			OutputTokens: chatResp.EvalCount,
			TotalTokens:  chatResp.PromptEvalCount + chatResp.EvalCount,
		},
	}, nil
}

// ChatStream returns the answer text of a streaming chat.
func (c *Client) ChatStream(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.stream(ctx, msgs, opts, provider.ModeAnswer)
}

// ChatStreamAPI returns the tagged normalized stream of a streaming chat.
func (c *Client) ChatStreamAPI(ctx context.Context, msgs []api.Message, opts api.ChatOptions) (io.ReadCloser, error) {
	return c.stream(ctx, msgs, opts, provider.ModeTagged)
}

func (c *Client) stream(ctx context.Context, msgs []api.Message, opts api.ChatOptions, mode provider.Mode) (io.ReadCloser, error) {
	// No client timeout on streams; ctx bounds the request.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	httpResp, err := c.send(ctx, streamClient, c.buildRequest(msgs, opts, true))
	if err != nil {
		return nil, err
	}
	return provider.NormalizeResponse(ctx, provider.KindOllama, c.Name(), httpResp, mode)
}

// ListModels queries /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/tags", nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, provider.MapHTTPError(httpResp)
	}

	var tags tagsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&tags); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse tags response: %s", err.Error()))
	}

	models := make([]api.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		id := m.Model
		if id == "" {
			id = m.Name
		}
		models = append(models, api.ModelInfo{
			ID:         id,
			OwnedBy:    "ollama",
			ModifiedAt: m.ModifiedAt,
			Size:       m.Size,
		})
	}
	return models, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) buildRequest(msgs []api.Message, opts api.ChatOptions, stream bool) *chatRequest {
	s := c.cfg.Sampling(opts)
	req := &chatRequest{
		Model:    c.cfg.Model,
		Messages: make([]chatMessage, 0, len(msgs)),
		Stream:   stream,
		Options: chatOptions{
			Temperature: s.Temperature,
			TopP:        s.TopP,
			TopK:        s.TopK,
			NumPredict:  s.MaxTokens,
		},
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return req
}

// send posts chatReq, retrying connection failures, 429 and 5xx answers
// per the configured retry budget.
func (c *Client) send(ctx context.Context, hc *http.Client, chatReq *chatRequest) (*http.Response, error) {
	return provider.SendWithRetry(ctx, c.Name(), c.cfg.MaxRetries, func() (*http.Response, error) {
		return c.sendOnce(ctx, hc, chatReq)
	})
}

func (c *Client) sendOnce(ctx context.Context, hc *http.Client, chatReq *chatRequest) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.apiURL + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	debug.Log("providers", "backend request",
		"url", url, "model", chatReq.Model, "messages", len(chatReq.Messages), "stream", chatReq.Stream)
	debug.Trace("providers", "backend request body", "body", string(body))

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
