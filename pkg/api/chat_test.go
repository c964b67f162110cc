package api

import (
	"encoding/json"
	"testing"
)

func TestPromptUnmarshal(t *testing.T) {
	var req ChatRequest
	if err := json.Unmarshal([]byte(`{"prompt":"hello"}`), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	msgs := req.Prompt.AsMessages()
	if len(msgs) != 1 || msgs[0].Role != RoleUser || msgs[0].Content != "hello" {
		t.Errorf("AsMessages() = %+v, want one user message", msgs)
	}

	body := `{"prompt":[{"role":"system","content":"be brief"},{"role":"user","content":"hi"}],"options":{"temperature":0.2}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := len(req.Prompt.AsMessages()); got != 2 {
		t.Errorf("len(AsMessages()) = %d, want 2", got)
	}
	if req.Options.Temperature == nil || *req.Options.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", req.Options.Temperature)
	}

	if err := json.Unmarshal([]byte(`{"prompt":42}`), &req); err == nil {
		t.Error("expected error for numeric prompt")
	}
}

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       ChatRequest
		wantParam string
	}{
		{"text ok", ChatRequest{Prompt: Prompt{Text: "hi"}}, ""},
		{"empty", ChatRequest{}, "prompt"},
		{"blank text", ChatRequest{Prompt: Prompt{Text: "  "}}, "prompt"},
		{
			"bad role",
			ChatRequest{Prompt: Prompt{Messages: []Message{{Role: "robot", Content: "x"}}}},
			"prompt[0].role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantParam == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Param != tt.wantParam {
				t.Errorf("Validate() = %v, want param %q", err, tt.wantParam)
			}
		})
	}
}
