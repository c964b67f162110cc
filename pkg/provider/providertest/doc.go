// Package providertest implements a deterministic LLM backend speaking both
// supported wire schemas: the OpenAI-compatible chat completions API
// (SSE, under /v1) and the Ollama chat API (JSON lines, under /api).
//
// Replies are chosen from the last user message, see [ScriptFor]. The
// backend is used by cmd/mock-backend and by the integration tests.
package providertest
