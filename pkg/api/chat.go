package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ChatOptions carries per-call sampling overrides. Nil fields fall back to
// the client's model defaults.
type ChatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// Prompt is either a single user string or a full message list. It
// unmarshals from a JSON string or a JSON array of messages.
type Prompt struct {
	Text     string
	Messages []Message
}

// Messages returns the prompt as a message list. A text prompt becomes a
// single user message.
func (p Prompt) AsMessages() []Message {
	if len(p.Messages) > 0 {
		return p.Messages
	}
	return []Message{{Role: RoleUser, Content: p.Text}}
}

// IsEmpty reports whether the prompt carries no content.
func (p Prompt) IsEmpty() bool {
	return len(p.Messages) == 0 && strings.TrimSpace(p.Text) == ""
}

// UnmarshalJSON accepts either "text" or [{"role":…,"content":…}, …].
func (p *Prompt) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		p.Text, p.Messages = text, nil
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("prompt must be a string or a message array: %w", err)
	}
	p.Text, p.Messages = "", msgs
	return nil
}

// MarshalJSON writes the text form when no message list is set.
func (p Prompt) MarshalJSON() ([]byte, error) {
	if len(p.Messages) > 0 {
		return json.Marshal(p.Messages)
	}
	return json.Marshal(p.Text)
}

// ChatRequest is the body accepted by the gateway chat endpoints.
type ChatRequest struct {
	Prompt  Prompt      `json:"prompt"`
	Options ChatOptions `json:"options"`

	// Split moves inline <think> reasoning out of the text into the
	// reasoning field. Only used by the non-streaming endpoint.
	Split bool `json:"split,omitempty"`
}

// Validate checks the request for required fields.
func (r *ChatRequest) Validate() *APIError {
	if r.Prompt.IsEmpty() {
		return NewInvalidRequestError("prompt", "prompt is required")
	}
	for i, m := range r.Prompt.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		default:
			return NewInvalidRequestError(fmt.Sprintf("prompt[%d].role", i),
				fmt.Sprintf("unsupported role %q", m.Role))
		}
	}
	return nil
}

// Usage holds token counts reported by the backend.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatResponse is a complete, non-streamed completion.
type ChatResponse struct {
	Model     string `json:"model"`
	Text      string `json:"text"`
	Reasoning string `json:"reasoning,omitempty"`
	Usage     Usage  `json:"usage"`
}

// ModelInfo describes a model served by a backend.
type ModelInfo struct {
	ID         string `json:"id"`
	OwnedBy    string `json:"owned_by,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
}
