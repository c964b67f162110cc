// Package ollama implements the provider adapter for the native Ollama chat
// API. Streaming responses arrive as newline-delimited JSON objects whose
// message.thinking deltas become <think> spans.
package ollama
