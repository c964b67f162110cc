// Package auth provides pluggable caller authentication for the thinkstream
// gateway.
//
// Authenticators vote in a chain: each returns Yes (identity found), No
// (credentials present but invalid), or Abstain (credentials not of its
// kind). The chain's default decides when every authenticator abstains.
// The chain runs as HTTP middleware in front of the chat endpoints, with an
// optional per-subject request limiter.
package auth
