// Package noop provides an authenticator that admits every request as
// "anonymous". It backs auth type "none".
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/thinkstream/pkg/auth"
)

// Authenticator always votes Yes.
type Authenticator struct{}

func (Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.Result {
	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous"},
	}
}
