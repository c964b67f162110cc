package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/thinkstream/pkg/api"
)

func TestHTTPStatusFromError(t *testing.T) {
	backend := api.NewServerError("backend returned 503")
	backend.BackendStatus = 503

	tests := []struct {
		name string
		err  *api.APIError
		want int
	}{
		{"invalid request", api.NewInvalidRequestError("prompt", "empty"), http.StatusBadRequest},
		{"authentication", api.NewAuthenticationError("no token"), http.StatusUnauthorized},
		{"not found", api.NewNotFoundError("no model"), http.StatusNotFound},
		{"too many requests", api.NewTooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{"server error", api.NewServerError("boom"), http.StatusInternalServerError},
		{"backend server error", backend, http.StatusBadGateway},
		{"unknown type", &api.APIError{Type: "weird"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tt.err); got != tt.want {
				t.Errorf("HTTPStatusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAsAPIError(t *testing.T) {
	orig := api.NewNotFoundError("missing")
	wrapped := fmt.Errorf("calling backend: %w", orig)
	if got := AsAPIError(wrapped); got != orig {
		t.Errorf("AsAPIError(wrapped) = %v, want original", got)
	}

	got := AsAPIError(errors.New("plain"))
	if got.Type != api.ErrorTypeServerError || got.Message != "plain" {
		t.Errorf("AsAPIError(plain) = %+v", got)
	}
}

func TestWriteAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, api.NewInvalidRequestError("prompt", "prompt is required"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Error == nil || resp.Error.Param != "prompt" {
		t.Errorf("error = %+v", resp.Error)
	}
}
