package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/thinkstream/pkg/api"
	"github.com/rhuss/thinkstream/pkg/llm"
	"github.com/rhuss/thinkstream/pkg/observability"
	"github.com/rhuss/thinkstream/pkg/transport"
)

// Adapter serves the chat gateway API over HTTP.
// It routes requests to the ChatHandler and writes JSON or streamed text.
type Adapter struct {
	handler  transport.ChatHandler
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
	logger   *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	// MetricsPath serves the Prometheus registry. Empty disables it.
	MetricsPath string
	Logger      *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
		MetricsPath: "/metrics",
	}
}

// modelList is the body of GET /v1/models.
type modelList struct {
	Object string          `json:"object"`
	Data   []api.ModelInfo `json:"data"`
}

// NewAdapter creates an HTTP adapter serving handler.
func NewAdapter(handler transport.ChatHandler, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		handler:  handler,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   logger,
	}

	a.mux.HandleFunc("POST /v1/chat", a.handleChat)
	a.mux.HandleFunc("POST /v1/chat/stream", a.handleStreamTagged)
	a.mux.HandleFunc("POST /v1/chat/stream/plain", a.handleStreamPlain)
	a.mux.HandleFunc("DELETE /v1/chat/stream/{id}", a.handleCancelStream)
	a.mux.HandleFunc("GET /v1/models", a.handleListModels)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Request metrics are
// recorded here, directly around the mux, so the matched route pattern
// is visible to the middleware.
func (a *Adapter) Handler() http.Handler {
	return observability.MetricsMiddleware(a.mux)
}

// InFlight exposes the registry of active streams.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// handleChat handles POST /v1/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeChatRequest(w, r)
	if !ok {
		return
	}

	resp, err := a.handler.Chat(r.Context(), req.Prompt, req.Options)
	if err != nil {
		a.writeHandlerError(w, r, err)
		return
	}

	if req.Split {
		resp.Text, resp.Reasoning = llm.SplitResponse(resp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStreamTagged handles POST /v1/chat/stream: reasoning is kept and
// wrapped in <think>...</think>.
func (a *Adapter) handleStreamTagged(w http.ResponseWriter, r *http.Request) {
	a.handleStream(w, r, a.handler.ChatStreamAPI)
}

// handleStreamPlain handles POST /v1/chat/stream/plain: answer text only.
func (a *Adapter) handleStreamPlain(w http.ResponseWriter, r *http.Request) {
	a.handleStream(w, r, a.handler.ChatStream)
}

type openStreamFunc func(ctx context.Context, prompt api.Prompt, opts api.ChatOptions) (io.ReadCloser, error)

func (a *Adapter) handleStream(w http.ResponseWriter, r *http.Request, open openStreamFunc) {
	req, ok := a.decodeChatRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if id != "" {
		a.inflight.Register(id, cancel)
		defer a.inflight.Remove(id)
	}

	body, err := open(ctx, req.Prompt, req.Options)
	if err != nil {
		a.writeHandlerError(w, r, err)
		return
	}
	defer body.Close()

	if err := copyStream(w, body); err != nil {
		if ctx.Err() != nil && r.Context().Err() == nil {
			a.logger.Info("stream cancelled", slog.String("request_id", id))
			return
		}
		a.logger.Warn("stream ended with error",
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// handleCancelStream handles DELETE /v1/chat/stream/{id}.
func (a *Adapter) handleCancelStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !a.inflight.Cancel(id) {
		transport.WriteAPIError(w, api.NewNotFoundError(fmt.Sprintf("no active stream with id %q", id)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListModels handles GET /v1/models.
func (a *Adapter) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := a.handler.ListModels(r.Context())
	if err != nil {
		a.writeHandlerError(w, r, err)
		return
	}
	if models == nil {
		models = []api.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, modelList{Object: "list", Data: models})
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeChatRequest validates the content type, limits and decodes the
// body, and validates the request. On failure it writes the error
// response and reports false.
func (a *Adapter) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*api.ChatRequest, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return nil, false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return nil, false
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return nil, false
	}

	if apiErr := req.Validate(); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return nil, false
	}
	return &req, true
}

func (a *Adapter) writeHandlerError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := transport.AsAPIError(err)
	status := transport.HTTPStatusFromError(apiErr)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	transport.WriteErrorResponse(w, apiErr, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
