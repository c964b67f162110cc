package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable marks a line that could not be decoded. Decoding errors
// wrap it; the pipeline drops such lines and keeps going.
var ErrUnparseable = errors.New("unparseable stream record")

// RecordKind classifies a decoded line.
type RecordKind int

const (
	RecordSkip       RecordKind = iota // Line carries nothing to emit
	RecordDelta                        // Reasoning and/or content delta
	RecordTerminator                   // End-of-stream sentinel
)

// String returns the metric label for the kind.
func (k RecordKind) String() string {
	switch k {
	case RecordDelta:
		return "delta"
	case RecordTerminator:
		return "terminator"
	default:
		return "skip"
	}
}

// Record is one decoded stream line. Reasoning and Content may both be set;
// reasoning is always dispatched first.
type Record struct {
	Kind      RecordKind
	Reasoning string
	Content   string
}

// Schema selects the wire format of the upstream stream.
type Schema string

const (
	// SchemaSSE is the OpenAI-compatible Server-Sent-Events format.
	SchemaSSE Schema = "sse"

	// SchemaJSONLines is the Ollama newline-delimited JSON format. It has
	// no terminator sentinel; the stream ends when the upstream closes.
	SchemaJSONLines Schema = "jsonl"
)

// DecodeFunc maps one trimmed line to a Record. It must be pure.
type DecodeFunc func(line string) (Record, error)

// Decoder returns the decode function for the schema. Unknown schemas fall
// back to SchemaSSE.
func (s Schema) Decoder() DecodeFunc {
	switch s {
	case SchemaJSONLines:
		return DecodeJSONLine
	default:
		return DecodeSSELine
	}
}

// sseChunk is the subset of a chat.completion.chunk the normalizer reads.
type sseChunk struct {
	Choices []struct {
		Delta struct {
			Content          *string `json:"content"`
			ReasoningContent *string `json:"reasoning_content"`
		} `json:"delta"`
	} `json:"choices"`
}

// DecodeSSELine decodes one line of an OpenAI-compatible SSE stream.
//
//	data: {"choices":[{"delta":{"content":"…","reasoning_content":"…"}}]}
//	data: [DONE]
//
// Lines without the "data:" prefix (blank separators, ": keep-alive"
// comments, "event:" fields) are skipped.
func DecodeSSELine(line string) (Record, error) {
	if line == "" || !strings.HasPrefix(line, "data:") {
		return Record{}, nil
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "[DONE]" {
		return Record{Kind: RecordTerminator}, nil
	}

	var chunk sseChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if len(chunk.Choices) == 0 {
		return Record{}, nil
	}

	delta := chunk.Choices[0].Delta
	return deltaRecord(delta.ReasoningContent, delta.Content), nil
}

// jsonLine is the subset of an Ollama /api/chat stream line the normalizer reads.
type jsonLine struct {
	Message *struct {
		Content  *string `json:"content"`
		Thinking *string `json:"thinking"`
	} `json:"message"`
}

// DecodeJSONLine decodes one line of an Ollama chat stream.
//
//	{"message":{"role":"assistant","content":"…","thinking":"…"},"done":false}
func DecodeJSONLine(line string) (Record, error) {
	if line == "" {
		return Record{}, nil
	}

	var msg jsonLine
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if msg.Message == nil {
		return Record{}, nil
	}
	return deltaRecord(msg.Message.Thinking, msg.Message.Content), nil
}

func deltaRecord(reasoning, content *string) Record {
	var rec Record
	if reasoning != nil {
		rec.Reasoning = *reasoning
	}
	if content != nil {
		rec.Content = *content
	}
	if rec.Reasoning != "" || rec.Content != "" {
		rec.Kind = RecordDelta
	}
	return rec
}
