// Package transport defines the handler contract and the HTTP middleware
// shared by the thinkstream gateway.
//
// The HTTP adapter in the http subpackage decodes chat requests, calls a
// [ChatHandler], and either writes a JSON response or pumps a normalized
// text stream to the client, flushing after every chunk.
//
// # Middleware
//
// Middleware are plain func(http.Handler) http.Handler values composed with
// [Chain]. Built-in middleware provide panic recovery, request ID
// assignment (X-Request-ID), and structured access logging via log/slog.
//
// # In-flight streams
//
// Active streams are registered under their request ID in an
// [InFlightRegistry] so a separate request can cancel them.
package transport
