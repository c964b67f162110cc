package providertest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultModel is reported when a request names no model.
const DefaultModel = "mock-model"

// Backend is a deterministic chat backend. It implements http.Handler.
type Backend struct {
	mux *http.ServeMux

	// TokenDelay is slept between streamed tokens.
	TokenDelay time.Duration
}

// New creates a backend serving both wire schemas.
func New() *Backend {
	b := &Backend{mux: http.NewServeMux()}
	b.mux.HandleFunc("POST /v1/chat/completions", b.handleChatCompletions)
	b.mux.HandleFunc("GET /v1/models", b.handleModels)
	b.mux.HandleFunc("POST /api/chat", b.handleOllamaChat)
	b.mux.HandleFunc("GET /api/tags", b.handleOllamaTags)
	b.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   *bool         `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r *chatRequest) lastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

func (r *chatRequest) model() string {
	if r.Model == "" {
		return DefaultModel
	}
	return r.Model
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return nil, false
	}
	slog.Debug("mock backend request", "path", r.URL.Path, "model", req.Model, "messages", len(req.Messages))
	return &req, true
}

func (b *Backend) pause() {
	if b.TokenDelay > 0 {
		time.Sleep(b.TokenDelay)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// --- OpenAI-compatible ---

type completionMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type completionChoice struct {
	Index        int               `json:"index"`
	Message      completionMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   completionUsage    `json:"usage"`
}

func (b *Backend) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	script := ScriptFor(req.lastUserMessage())
	if script.Status != 0 {
		writeJSON(w, script.Status, map[string]any{
			"error": map[string]string{"message": script.ErrorMessage, "type": "mock_error"},
		})
		return
	}

	if req.Stream != nil && *req.Stream {
		b.streamCompletion(w, req.model(), script)
		return
	}

	n := len(script.Reasoning) + len(script.Content)
	writeJSON(w, http.StatusOK, completionResponse{
		ID:     "chatcmpl-mock",
		Object: "chat.completion",
		Model:  req.model(),
		Choices: []completionChoice{{
			Message: completionMessage{
				Role:             "assistant",
				Content:          script.Text(),
				ReasoningContent: script.ReasoningText(),
			},
			FinishReason: "stop",
		}},
		Usage: completionUsage{PromptTokens: 10, CompletionTokens: n, TotalTokens: 10 + n},
	})
}

func (b *Backend) streamCompletion(w http.ResponseWriter, model string, script Script) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	event := func(delta map[string]any, finish any) {
		chunk := map[string]any{
			"id":     "chatcmpl-mock-stream",
			"object": "chat.completion.chunk",
			"model":  model,
			"choices": []any{map[string]any{
				"index":         0,
				"delta":         delta,
				"finish_reason": finish,
			}},
		}
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flush(w)
	}

	io.WriteString(w, ": keep-alive\n\n")
	event(map[string]any{"role": "assistant"}, nil)
	for _, tok := range script.Reasoning {
		b.pause()
		event(map[string]any{"reasoning_content": tok}, nil)
	}
	if script.Malformed {
		io.WriteString(w, "data: {\"choices\":[{\"delta\":\n\n")
		flush(w)
	}
	for _, tok := range script.Content {
		b.pause()
		event(map[string]any{"content": tok}, nil)
	}
	event(map[string]any{}, "stop")
	io.WriteString(w, "data: [DONE]\n\n")
	flush(w)
}

func (b *Backend) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": DefaultModel, "object": "model", "owned_by": "thinkstream-mock"},
		},
	})
}

// --- Ollama ---

type ollamaMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

func (b *Backend) handleOllamaChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	script := ScriptFor(req.lastUserMessage())
	if script.Status != 0 {
		writeJSON(w, script.Status, map[string]string{"error": script.ErrorMessage})
		return
	}

	created := time.Now().UTC().Format(time.RFC3339)
	n := len(script.Reasoning) + len(script.Content)

	// Ollama streams unless told otherwise.
	if req.Stream == nil || *req.Stream {
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		line := func(msg ollamaMessage) {
			enc.Encode(ollamaResponse{Model: req.model(), CreatedAt: created, Message: msg})
			flush(w)
		}
		for _, tok := range script.Reasoning {
			b.pause()
			line(ollamaMessage{Role: "assistant", Thinking: tok})
		}
		if script.Malformed {
			io.WriteString(w, "{\"message\":\n")
			flush(w)
		}
		for _, tok := range script.Content {
			b.pause()
			line(ollamaMessage{Role: "assistant", Content: tok})
		}
		enc.Encode(ollamaResponse{
			Model: req.model(), CreatedAt: created,
			Message:         ollamaMessage{Role: "assistant"},
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       n,
		})
		flush(w)
		return
	}

	writeJSON(w, http.StatusOK, ollamaResponse{
		Model:     req.model(),
		CreatedAt: created,
		Message: ollamaMessage{
			Role:     "assistant",
			Content:  script.Text(),
			Thinking: script.ReasoningText(),
		},
		Done:            true,
		PromptEvalCount: 10,
		EvalCount:       n,
	})
}

func (b *Backend) handleOllamaTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models": []map[string]any{
			{"name": DefaultModel, "model": DefaultModel, "modified_at": "2024-01-01T00:00:00Z", "size": 1024},
		},
	})
}
