// Package provider defines the backend abstraction for LLM chat providers.
// Each adapter (openaicompat, ollama) speaks its backend's wire protocol and
// hands the raw streaming body to the stream normalizer, so every provider
// exposes the same tagged text stream to callers.
package provider
