// Package identity resolves caller bearer tokens to user identifiers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clubfinder/clubfinder/internal/config"
)

// ErrInvalidToken is returned when the backend rejects the credential.
// Any other error from a Verifier means the backend itself failed.
var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a bearer token to the id of the user who owns it.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (string, error)

// Verify calls f(ctx, token).
func (f VerifierFunc) Verify(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// NewVerifier creates a Verifier based on the identity configuration.
func NewVerifier(cfg config.IdentityConfig, client *http.Client) (Verifier, error) {
	switch cfg.Kind {
	case config.IdentityKindSupabase:
		return NewSupabaseVerifier(cfg.URL, string(cfg.AnonKey), client), nil
	case config.IdentityKindJWT:
		return NewJWTVerifier([]byte(cfg.JWTSecret), cfg.Audience)
	default:
		return nil, fmt.Errorf("unknown identity kind: %s", cfg.Kind)
	}
}

// BearerToken extracts the token from an Authorization header value.
// The second result is false when the header is empty.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	token, _ := strings.CutPrefix(header, "Bearer ")
	return token, true
}
