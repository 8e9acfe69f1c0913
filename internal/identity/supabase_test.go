package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabaseServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestSupabaseVerifier_Verify(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantUser   string
		wantInvald bool
		wantErr    bool
	}{
		{
			name:     "valid token",
			status:   http.StatusOK,
			body:     `{"id":"u1","email":"student@example.edu"}`,
			wantUser: "u1",
		},
		{
			name:       "rejected token",
			status:     http.StatusUnauthorized,
			body:       `{"msg":"invalid JWT"}`,
			wantInvald: true,
		},
		{
			name:       "forbidden",
			status:     http.StatusForbidden,
			wantInvald: true,
		},
		{
			name:       "malformed token",
			status:     http.StatusBadRequest,
			body:       `{"code":400,"msg":"bad_jwt"}`,
			wantInvald: true,
		},
		{
			name:       "user not found",
			status:     http.StatusNotFound,
			body:       `{"code":404,"msg":"User not found"}`,
			wantInvald: true,
		},
		{
			name:       "unprocessable",
			status:     http.StatusUnprocessableEntity,
			wantInvald: true,
		},
		{
			name:       "no user in body",
			status:     http.StatusOK,
			body:       `{}`,
			wantInvald: true,
		},
		{
			name:    "backend failure",
			status:  http.StatusBadGateway,
			wantErr: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/v1/user", r.URL.Path)
				assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
				assert.Equal(t, "anon-key", r.Header.Get("apikey"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			v := NewSupabaseVerifier(server.URL+"/", "anon-key", server.Client())
			user, err := v.Verify(context.Background(), "abc")

			switch {
			case tt.wantInvald:
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidToken)
			case tt.wantErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrInvalidToken)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, user)
			}
		})
	}
}

func TestSupabaseVerifier_EmptyToken(t *testing.T) {
	called := false
	server := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	v := NewSupabaseVerifier(server.URL, "anon-key", server.Client())
	_, err := v.Verify(context.Background(), "")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, called, "empty tokens must not reach the backend")
}

func TestSupabaseVerifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	v := NewSupabaseVerifier(url, "anon-key", nil)
	_, err := v.Verify(context.Background(), "abc")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}
