// Package stream normalizes a provider's incremental chat-completion stream
// into a single text stream in which reasoning is bracketed inline by
// <think> and </think> markers.
//
// The pipeline has four stages, each owned by one request:
//
//   - LineFramer splits decoded text into newline-delimited records,
//     keeping a trailing partial line buffered across reads.
//   - A DecodeFunc (selected by Schema) turns one line into a Record.
//   - TagEmitter tracks whether a reasoning span is open and writes the
//     markers and deltas to the sink in order.
//   - Normalize drives the other three from a single pull loop; NewReader
//     exposes the same loop as an io.ReadCloser.
//
// Two wire schemas are supported:
//
//	SchemaSSE:       data: {"choices":[{"delta":{"reasoning_content":"…","content":"…"}}]}
//	                 data: [DONE]
//	SchemaJSONLines: {"message":{"thinking":"…","content":"…"}}
//
// Malformed records are dropped and reported, never fatal. Upstream read
// failures are fatal; before the error is surfaced an open reasoning span
// is closed so the consumer never sees an unbalanced marker.
package stream
