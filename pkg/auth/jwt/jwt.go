// Package jwt authenticates bearer JWTs. Tokens are verified either with a
// shared HMAC secret (HS256/384/512) or against the RSA keys published at a
// JWKS endpoint (RS256/384/512); both may be configured at once.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/thinkstream/pkg/auth"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Secret verifies HMAC-signed tokens. Empty disables HMAC.
	Secret []byte

	// JWKSURL serves the RSA keys for RS-signed tokens. Empty disables RSA.
	JWKSURL string

	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// SubjectClaim names the claim used as identity subject. Default: "sub".
	SubjectClaim string

	// ScopesClaim names the scopes claim, either a space separated string
	// or an array. Default: "scope".
	ScopesClaim string

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration

	// CacheTTL bounds how long JWKS keys are reused. Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient fetches the JWKS. Default: http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.SubjectClaim == "" {
		c.SubjectClaim = "sub"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config Config
	keys   *keySet
	parser *jwtlib.Parser
}

// New creates an authenticator. It fails when neither a secret nor a JWKS
// URL is configured.
func New(cfg Config) (*Authenticator, error) {
	cfg.applyDefaults()

	var methods []string
	if len(cfg.Secret) > 0 {
		methods = append(methods, "HS256", "HS384", "HS512")
	}
	if cfg.JWKSURL != "" {
		methods = append(methods, "RS256", "RS384", "RS512")
	}
	if len(methods) == 0 {
		return nil, errors.New("jwt: a secret or a JWKS URL is required")
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(methods),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}

	a := &Authenticator{
		config: cfg,
		parser: jwtlib.NewParser(opts...),
	}
	if cfg.JWKSURL != "" {
		a.keys = newKeySet(cfg.JWKSURL, cfg.HTTPClient, cfg.CacheTTL)
	}
	return a, nil
}

// Authenticate abstains without a bearer token, votes No for a token that
// fails verification, and Yes otherwise.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.Result{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return auth.Result{Decision: auth.No, Err: errors.New("empty bearer token")}
	}

	claims := jwtlib.MapClaims{}
	_, err := a.parser.ParseWithClaims(tokenStr, claims, func(token *jwtlib.Token) (any, error) {
		return a.verificationKey(ctx, token)
	})
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return auth.Result{Decision: auth.No, Err: fmt.Errorf("invalid JWT: %w", err)}
	}

	subject := claimString(claims, a.config.SubjectClaim)
	if subject == "" {
		return auth.Result{
			Decision: auth.No,
			Err:      fmt.Errorf("JWT missing %q claim", a.config.SubjectClaim),
		}
	}

	identity := &auth.Identity{
		Subject:  subject,
		Scopes:   extractScopes(claims, a.config.ScopesClaim),
		Metadata: map[string]string{},
	}
	if iss := claimString(claims, "iss"); iss != "" {
		identity.Metadata["issuer"] = iss
	}

	return auth.Result{Decision: auth.Yes, Identity: identity}
}

func (a *Authenticator) verificationKey(ctx context.Context, token *jwtlib.Token) (any, error) {
	switch token.Method.(type) {
	case *jwtlib.SigningMethodHMAC:
		if len(a.config.Secret) == 0 {
			return nil, fmt.Errorf("HMAC tokens are not accepted")
		}
		return a.config.Secret, nil
	case *jwtlib.SigningMethodRSA:
		if a.keys == nil {
			return nil, fmt.Errorf("RSA tokens are not accepted")
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}
		return a.keys.get(ctx, kid)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func extractScopes(claims jwtlib.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if parts := strings.Fields(v); len(parts) > 0 {
			return parts
		}
	case []any:
		var scopes []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
