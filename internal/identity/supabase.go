package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// SupabaseVerifier asks a Supabase auth server which user owns a token.
type SupabaseVerifier struct {
	userURL string
	anonKey string
	client  *http.Client
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewSupabaseVerifier creates a verifier against {baseURL}/auth/v1/user.
// A nil client means http.DefaultClient.
func NewSupabaseVerifier(baseURL, anonKey string, client *http.Client) *SupabaseVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseVerifier{
		userURL: strings.TrimRight(baseURL, "/") + "/auth/v1/user",
		anonKey: anonKey,
		client:  client,
	}
}

// Verify implements Verifier.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	// oauth2.NewClient picks up the base client from the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userURL, nil)
	if err != nil {
		return "", fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("apikey", v.anonKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	defer resp.Body.Close()

	// Any 4xx is the auth server refusing the token; only 5xx and
	// transport failures are ours to report.
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", ErrInvalidToken
	default:
		return "", fmt.Errorf("failed to get user: status %d", resp.StatusCode)
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode user: %w", err)
	}
	if user.ID == "" {
		return "", ErrInvalidToken
	}
	return user.ID, nil
}
