package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rhuss/thinkstream/pkg/api"
)

func withFastRetries(t *testing.T) {
	t.Helper()
	initial, max := RetryInitialInterval, RetryMaxInterval
	RetryInitialInterval, RetryMaxInterval = time.Millisecond, 5*time.Millisecond
	t.Cleanup(func() { RetryInitialInterval, RetryMaxInterval = initial, max })
}

func backendError(status int) *api.APIError {
	err := api.NewServerError("backend failed")
	err.BackendStatus = status
	return err
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", MapNetworkError(errors.New("connection refused")), true},
		{"rate limited", api.NewTooManyRequestsError("slow down"), true},
		{"503", backendError(503), true},
		{"backend auth", backendError(401), false},
		{"bad request", api.NewInvalidRequestError("", "bad"), false},
		{"not found", api.NewNotFoundError("no model"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendWithRetry(t *testing.T) {
	withFastRetries(t)

	tests := []struct {
		name         string
		maxRetries   int
		failures     []error
		wantAttempts int
		wantErr      bool
	}{
		{"disabled", 0, []error{backendError(503)}, 1, true},
		{"recovers", 3, []error{backendError(503), api.NewTooManyRequestsError("x")}, 3, false},
		{"budget exhausted", 2, []error{backendError(503), backendError(503), backendError(503), backendError(503)}, 3, true},
		{"permanent", 3, []error{api.NewInvalidRequestError("", "bad")}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			resp, err := SendWithRetry(context.Background(), "test", tt.maxRetries, func() (*http.Response, error) {
				attempts++
				if attempts <= len(tt.failures) {
					return nil, tt.failures[attempts-1]
				}
				return &http.Response{StatusCode: http.StatusOK}, nil
			})
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d", resp.StatusCode)
			}
		})
	}
}

func TestSendWithRetryKeepsAPIError(t *testing.T) {
	withFastRetries(t)

	_, err := SendWithRetry(context.Background(), "test", 1, func() (*http.Response, error) {
		return nil, api.NewTooManyRequestsError("slow down")
	})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeTooManyRequests {
		t.Errorf("err = %v, want too_many_requests APIError", err)
	}
}

func TestSendWithRetryStopsOnCancel(t *testing.T) {
	withFastRetries(t)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := SendWithRetry(ctx, "test", 5, func() (*http.Response, error) {
		attempts++
		cancel()
		return nil, MapNetworkError(context.Canceled)
	})
	if err == nil || attempts != 1 {
		t.Errorf("attempts = %d, err = %v", attempts, err)
	}
}
