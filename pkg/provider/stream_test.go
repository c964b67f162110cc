package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestNormalizeResponse_MissingBody(t *testing.T) {
	for _, body := range []io.ReadCloser{nil, http.NoBody} {
		resp := &http.Response{StatusCode: http.StatusOK, Body: body}
		_, err := NormalizeResponse(context.Background(), KindOpenAI, "openai", resp, ModeTagged)
		if !errors.Is(err, ErrMissingBody) {
			t.Errorf("err = %v, want ErrMissingBody", err)
		}
	}
}

func TestNormalizeResponse_Modes(t *testing.T) {
	const body = `{"message":{"thinking":"hmm"}}` + "\n" +
		`{"message":{"content":"ok"}}` + "\n" +
		`{"done":true}` + "\n"

	tests := []struct {
		mode Mode
		want string
	}{
		{ModeTagged, "<think>hmm</think>ok"},
		{ModeAnswer, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			resp := &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
			}
			rc, err := NormalizeResponse(context.Background(), KindOllama, "ollama", resp, tt.mode)
			if err != nil {
				t.Fatalf("NormalizeResponse: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("stream = %q, want %q", got, tt.want)
			}
		})
	}
}
