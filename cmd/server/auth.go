package main

import (
	"fmt"
	"log/slog"

	"github.com/rhuss/thinkstream/pkg/auth"
	"github.com/rhuss/thinkstream/pkg/auth/apikey"
	"github.com/rhuss/thinkstream/pkg/auth/jwt"
	"github.com/rhuss/thinkstream/pkg/auth/noop"
	"github.com/rhuss/thinkstream/pkg/config"
	"github.com/rhuss/thinkstream/pkg/transport"
)

// buildAuth turns the auth section into request middleware. Paths in
// bypass are served without authentication.
func buildAuth(cfg config.AuthConfig, bypass []string) (transport.Middleware, error) {
	chain := &auth.Chain{}

	switch cfg.Type {
	case "", "none":
		chain.Authenticators = []auth.Authenticator{noop.Authenticator{}}
	case "apikey":
		entries := make([]apikey.Entry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.Entry{Key: k.Key, Subject: k.Subject, Scopes: k.Scopes})
		}
		chain.Authenticators = []auth.Authenticator{apikey.New(entries)}
	case "jwt":
		authn, err := jwt.New(jwt.Config{
			Secret:       []byte(cfg.JWT.Secret),
			JWKSURL:      cfg.JWT.JWKSURL,
			Issuer:       cfg.JWT.Issuer,
			Audience:     cfg.JWT.Audience,
			SubjectClaim: cfg.JWT.SubjectClaim,
			ScopesClaim:  cfg.JWT.ScopesClaim,
		})
		if err != nil {
			return nil, err
		}
		chain.Authenticators = []auth.Authenticator{authn}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	var limiter auth.RateLimiter
	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		limiter = auth.NewWindowLimiter(rpm)
		slog.Info("rate limiting enabled", "requests_per_minute", rpm)
	}

	return auth.Middleware(chain, limiter, bypass), nil
}
