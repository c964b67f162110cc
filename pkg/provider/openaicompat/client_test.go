package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/thinkstream/pkg/api"
	"github.com/rhuss/thinkstream/pkg/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := provider.DefaultConfig(provider.KindDeepSeek, "deepseek-reasoner")
	cfg.Endpoint = srv.URL + "/v1/chat/completions"
	cfg.APIKey = "sk-test"
	c := New(cfg)
	t.Cleanup(func() { c.Close() })
	return c
}

var userHello = []api.Message{{Role: api.RoleUser, Content: "Hello"}}

func TestClient_Chat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "deepseek-reasoner" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Temperature != 0.7 || req.TopP != 0.9 || req.MaxTokens != 8192 {
			t.Errorf("sampling = %v/%v/%v", req.Temperature, req.TopP, req.MaxTokens)
		}
		if req.SendReasoning || req.Reasoning {
			t.Error("reasoning flags must only be sent on streams")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model: "deepseek-reasoner",
			Choices: []ChatChoice{{
				Message: ChatMessage{Role: "assistant", Content: "Hi!", ReasoningContent: "greet back"},
			}},
			Usage: &ChatUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		})
	})

	if c.Name() != "deepseek" {
		t.Errorf("Name() = %q, want deepseek", c.Name())
	}

	resp, err := c.Chat(context.Background(), userHello, api.ChatOptions{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Text != "Hi!" || resp.Reasoning != "greet back" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", resp.Usage.TotalTokens)
	}
}

func TestClient_Chat_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := c.Chat(context.Background(), userHello, api.ChatOptions{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("err = %v, want server error", err)
	}
}

func TestClient_ChatStreamAPI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if !req.Stream || !req.SendReasoning || !req.Reasoning {
			t.Errorf("stream flags = %v/%v/%v", req.Stream, req.SendReasoning, req.Reasoning)
		}
		if req.Temperature != 0.2 {
			t.Errorf("Temperature = %v, want override 0.2", req.Temperature)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`data: {"choices":[{"delta":{"reasoning_content":"Let me "}}]}`,
			`data: {"choices":[{"delta":{"reasoning_content":"think."}}]}`,
			`: keep-alive`,
			`data: {"choices":[{"delta":{"content":"Answer"}}]}`,
			`data: [DONE]`,
		} {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	})

	temp := 0.2
	rc, err := c.ChatStreamAPI(context.Background(), userHello, api.ChatOptions{Temperature: &temp})
	if err != nil {
		t.Fatalf("ChatStreamAPI: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if want := "<think>Let me think.</think>Answer"; string(got) != want {
		t.Errorf("stream = %q, want %q", got, want)
	}
}

func TestClient_ChatStream_AnswerOnly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"x\"}}]}\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}\n\n"+
			"data: [DONE]\n\n")
	})

	rc, err := c.ChatStream(context.Background(), userHello, api.ChatOptions{})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if string(got) != "y" {
		t.Errorf("stream = %q, want %q", got, "y")
	}
}

func TestClient_ChatStream_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	})

	_, err := c.ChatStreamAPI(context.Background(), userHello, api.ChatOptions{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.APIError", err)
	}
	if apiErr.Type != api.ErrorTypeTooManyRequests || apiErr.Message != "slow down" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := provider.DefaultConfig(provider.KindOpenAI, "gpt-4o")
	cfg.Endpoint = url
	c := New(cfg)

	_, err := c.ChatStreamAPI(context.Background(), userHello, api.ChatOptions{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("err = %v, want server error", err)
	}
}

func TestClient_ListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(ChatModelsResponse{
			Object: "list",
			Data: []ChatModel{
				{ID: "deepseek-chat", OwnedBy: "deepseek"},
				{ID: "deepseek-reasoner", OwnedBy: "deepseek"},
			},
		})
	})

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[1].ID != "deepseek-reasoner" {
		t.Errorf("models = %+v", models)
	}
}

func TestClient_StreamRetriesBeforeFirstToken(t *testing.T) {
	initial := provider.RetryInitialInterval
	provider.RetryInitialInterval = time.Millisecond
	t.Cleanup(func() { provider.RetryInitialInterval = initial })

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"warming up"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := provider.DefaultConfig(provider.KindOpenAI, "gpt-4o")
	cfg.Endpoint = srv.URL
	cfg.MaxRetries = 2
	c := New(cfg)

	body, err := c.ChatStreamAPI(context.Background(), userHello, api.ChatOptions{})
	if err != nil {
		t.Fatalf("ChatStreamAPI() error: %v", err)
	}
	defer body.Close()
	got, _ := io.ReadAll(body)
	if string(got) != "ok" || attempts.Load() != 2 {
		t.Errorf("body = %q after %d attempts", got, attempts.Load())
	}
}
