// Package openaicompat implements the provider adapter for OpenAI-compatible
// Chat Completions backends (OpenAI, DeepSeek, SiliconFlow, OpenRouter,
// Zhipu). Streaming responses arrive as SSE and are normalized by the
// stream package; reasoning_content deltas become <think> spans.
package openaicompat
