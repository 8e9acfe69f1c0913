package identity

import (
	"context"
	"testing"

	"github.com/clubfinder/clubfinder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{name: "empty", header: "", wantOK: false},
		{name: "bearer", header: "Bearer abc", wantToken: "abc", wantOK: true},
		{name: "no prefix passes through", header: "abc", wantToken: "abc", wantOK: true},
		{name: "prefix only", header: "Bearer ", wantToken: "", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := BearerToken(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier(config.IdentityConfig{
		Kind:    config.IdentityKindSupabase,
		URL:     "https://project.supabase.co",
		AnonKey: "anon",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SupabaseVerifier{}, v)

	v, err = NewVerifier(config.IdentityConfig{
		Kind:      config.IdentityKindJWT,
		JWTSecret: "0123456789abcdef0123456789abcdef",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &JWTVerifier{}, v)

	_, err = NewVerifier(config.IdentityConfig{Kind: "ldap"}, nil)
	assert.Error(t, err)
}

func TestVerifierFunc(t *testing.T) {
	v := VerifierFunc(func(ctx context.Context, token string) (string, error) {
		return "user-" + token, nil
	})

	id, err := v.Verify(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "user-abc", id)
}
