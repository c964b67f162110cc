// Package apikey authenticates callers by static API keys, sent either as
// a bearer token or in the X-API-Key header. Keys are kept as SHA-256
// hashes and compared in constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/rhuss/thinkstream/pkg/auth"
)

// HeaderName is the alternative header carrying a raw key.
const HeaderName = "X-API-Key"

// Entry configures one key.
type Entry struct {
	Key     string
	Subject string
	Scopes  []string
}

type hashedEntry struct {
	hash    [32]byte
	subject string
	scopes  []string
}

// Authenticator validates keys against a static set.
type Authenticator struct {
	keys []hashedEntry
}

// New hashes the given keys. Plaintext keys are not retained. Entries
// without a subject use "apikey-<n>".
func New(entries []Entry) *Authenticator {
	a := &Authenticator{keys: make([]hashedEntry, 0, len(entries))}
	for i, e := range entries {
		subject := e.Subject
		if subject == "" {
			subject = "apikey-" + strconv.Itoa(i)
		}
		a.keys = append(a.keys, hashedEntry{
			hash:    sha256.Sum256([]byte(e.Key)),
			subject: subject,
			scopes:  append([]string(nil), e.Scopes...),
		})
	}
	return a
}

// Authenticate abstains when no key is presented, votes No for an unknown
// key, and Yes for a known one.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	key, ok := auth.BearerToken(r)
	if !ok {
		key = r.Header.Get(HeaderName)
		if key == "" {
			return auth.Result{Decision: auth.Abstain}
		}
	}
	if key == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(key))
	for _, e := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], e.hash[:]) == 1 {
			return auth.Result{
				Decision: auth.Yes,
				Identity: &auth.Identity{
					Subject: e.subject,
					Scopes:  append([]string(nil), e.scopes...),
				},
			}
		}
	}

	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

