package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/observability"
	"github.com/rhuss/thinkstream/pkg/stream"
)

// Mode selects which normalized stream a caller receives.
type Mode int

const (
	// ModeTagged keeps reasoning, wrapped in <think>...</think>.
	ModeTagged Mode = iota
	// ModeAnswer drops reasoning and yields answer text only.
	ModeAnswer
)

// NormalizeResponse wraps a successful streaming HTTP response in the
// stream normalizer. The response body is owned by the returned reader and
// is closed when the reader is closed.
func NormalizeResponse(ctx context.Context, kind Kind, name string, resp *http.Response, mode Mode) (io.ReadCloser, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrMissingBody
	}

	opts := []stream.Option{
		stream.WithSchema(kind.Schema()),
		stream.WithProvider(name),
		stream.WithErrorObserver(func(line string, err error) {
			debug.Log("providers", "malformed upstream record",
				"provider", name, "error", err, "line", debug.Truncate(line, 200))
		}),
	}
	if mode == ModeAnswer {
		opts = append(opts, stream.WithoutReasoning())
	}

	debug.Log("providers", "stream opened",
		"provider", name, "schema", kind.Schema(), "mode", mode.String())
	return stream.NewReader(ctx, resp.Body, opts...), nil
}

// String returns "tagged" or "answer".
func (m Mode) String() string {
	if m == ModeAnswer {
		return "answer"
	}
	return "tagged"
}

// ObserveRequest records one backend round trip. status is the HTTP status,
// or 0 when the request failed before a response arrived.
func ObserveRequest(name, model string, start time.Time, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	observability.ProviderRequestsTotal.WithLabelValues(name, model, label).Inc()
	observability.ProviderLatency.WithLabelValues(name, model).Observe(time.Since(start).Seconds())

	if status == 0 || status >= 400 {
		slog.Warn("backend request failed", "provider", name, "model", model, "status", status)
	}
}
