package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rhuss/thinkstream/pkg/api"
)

// Backoff bounds between retries. Variables so tests can shorten them.
var (
	RetryInitialInterval = 500 * time.Millisecond
	RetryMaxInterval     = 10 * time.Second
)

// Retryable reports whether a failed backend request may be sent again:
// connection failures, 429 and 5xx answers. Client errors are final.
func Retryable(err error) bool {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Type {
	case api.ErrorTypeTooManyRequests:
		return true
	case api.ErrorTypeServerError:
		return apiErr.BackendStatus == 0 || apiErr.BackendStatus >= http.StatusInternalServerError
	default:
		return false
	}
}

// SendWithRetry calls send until it returns a response, fails with a
// non-retryable error, ctx ends, or maxRetries retries are spent. Only
// opening the request is retried; once a response is returned its stream
// belongs to the caller, so no token is ever delivered twice.
func SendWithRetry(ctx context.Context, name string, maxRetries int, send func() (*http.Response, error)) (*http.Response, error) {
	if maxRetries <= 0 {
		return send()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = RetryInitialInterval
	eb.MaxInterval = RetryMaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxRetries)), ctx)

	var resp *http.Response
	op := func() error {
		r, err := send()
		if err != nil {
			if ctx.Err() != nil || !Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("backend request failed, retrying",
			"provider", name,
			"error", err.Error(),
			"wait", wait,
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}
