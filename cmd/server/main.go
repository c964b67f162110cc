// Command server runs the thinkstream chat gateway.
//
// Configuration is read from a YAML file (see -config) and THINKSTREAM_*
// environment variables:
//
//	THINKSTREAM_CONFIG    - Path to the config file
//	THINKSTREAM_PROVIDER  - Backend kind: openai, ollama, zhipu, openrouter, siliconflow, deepseek
//	THINKSTREAM_ENDPOINT  - Backend base URL (default: the kind's public endpoint)
//	THINKSTREAM_API_KEY   - Backend API key
//	THINKSTREAM_MODEL     - Model name (required)
//	THINKSTREAM_PORT      - Listen port (default: 8080)
//	THINKSTREAM_AUTH_TYPE - Caller authentication: none, apikey, jwt
//	THINKSTREAM_DEBUG     - Debug categories, e.g. "providers,streaming"
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/rhuss/thinkstream/pkg/config"
	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/llm"
	transporthttp "github.com/rhuss/thinkstream/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	client, err := llm.New(cfg.ProviderSettings())
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer client.Close()

	metricsPath := ""
	bypass := []string{"/healthz"}
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
		bypass = append(bypass, metricsPath)
	}

	authMW, err := buildAuth(cfg.Auth, bypass)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	srv := transporthttp.NewServer(client,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithLogger(logger),
		transporthttp.WithMiddleware(authMW),
	)

	slog.Info("gateway configured",
		"provider", client.Provider().Name(),
		"model", cfg.Provider.Model,
		"auth", cfg.Auth.Type,
		"metrics", metricsPath,
	)

	return srv.ListenAndServe()
}
