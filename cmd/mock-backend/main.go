// Command mock-backend runs a deterministic LLM backend for local
// development and manual testing of the gateway. It serves the
// OpenAI-compatible API under /v1 and the Ollama API under /api.
//
// Configuration:
//
//	MOCK_PORT        - Listen port (default: 9090)
//	MOCK_TOKEN_DELAY - Pause between streamed tokens, e.g. "50ms" (default: 0)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/thinkstream/pkg/provider/providertest"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	backend := providertest.New()
	if v := os.Getenv("MOCK_TOKEN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid MOCK_TOKEN_DELAY", "value", v, "error", err)
			os.Exit(1)
		}
		backend.TokenDelay = d
	}

	srv := &http.Server{Addr: ":" + port, Handler: backend}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "token_delay", backend.TokenDelay)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
