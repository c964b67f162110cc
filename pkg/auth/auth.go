package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision is the outcome of one authentication vote.
type Decision int

// The zero value is Abstain, so an unset Chain.Default rejects.
const (
	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain Decision = iota

	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No
)

// String returns "yes", "no" or "abstain".
func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "abstain"
	}
}

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // set only when Decision == Yes
	Err      error     // set only when Decision == No
}

// Identity is an authenticated caller.
type Identity struct {
	// Subject is the unique caller identifier. Never empty.
	Subject string

	// Scopes lists the authorization scopes granted.
	Scopes []string

	// Metadata carries authenticator-specific attributes.
	Metadata map[string]string
}

// HasScope reports whether the identity was granted scope.
func (id *Identity) HasScope(scope string) bool {
	if id == nil {
		return false
	}
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Authenticator examines request credentials and votes.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain evaluates authenticators in order.
type Chain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator

	// Default is used when all authenticators abstain. Yes admits the
	// caller as "anonymous".
	Default Decision
}

// Authenticate runs the chain. It stops on the first Yes or No.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.Default == Yes {
		return Result{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous"},
		}
	}

	return Result{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
// ok is false when the header is missing or uses another scheme.
func BearerToken(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
