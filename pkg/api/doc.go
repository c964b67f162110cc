// Package api defines the request, response, and error types shared by the
// thinkstream client library, its providers, and its HTTP gateway.
//
// The package performs no I/O. Core types:
//   - [Message]: one chat turn (role + content)
//   - [ChatOptions]: per-call sampling overrides
//   - [ChatRequest]: gateway request body
//   - [ChatResponse]: complete non-streaming result, with reasoning split out
//   - [APIError]: structured error with type, code, param, and message
package api
