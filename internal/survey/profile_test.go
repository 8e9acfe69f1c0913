package survey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clubfinder/clubfinder/internal/identity"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/clubfinder/clubfinder/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveProfile(h http.Handler, method, authorization, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/profile", strings.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestProfileHandler_Lifecycle(t *testing.T) {
	h := NewProfileHandler(storage.NewMemoryStorage(), tokenVerifier)

	w := serveProfile(h, http.MethodGet, "Bearer good", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Profile not found"}`, w.Body.String())

	w = serveProfile(h, http.MethodPut, "Bearer good", `{"gender":"Female","careerFields":"Law, Business/Finance"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var saved storage.StoredProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "u1", saved.UserID)
	assert.Equal(t, search.CareerFields{"Law", "Business/Finance"}, saved.Profile.CareerFields)

	w = serveProfile(h, http.MethodGet, "Bearer good", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got storage.StoredProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Female", got.Profile.Gender)

	w = serveProfile(h, http.MethodDelete, "Bearer good", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serveProfile(h, http.MethodDelete, "Bearer good", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileHandler_Errors(t *testing.T) {
	tests := []struct {
		name          string
		verifier      identity.Verifier
		method        string
		authorization string
		body          string
		wantStatus    int
		wantBody      string
	}{
		{
			name:       "missing header",
			verifier:   tokenVerifier,
			method:     http.MethodGet,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:          "rejected token",
			verifier:      tokenVerifier,
			method:        http.MethodGet,
			authorization: "Bearer stale",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `{"error":"Unauthorized"}`,
		},
		{
			name: "empty user",
			verifier: identity.VerifierFunc(func(context.Context, string) (string, error) {
				return "", nil
			}),
			method:        http.MethodGet,
			authorization: "Bearer good",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `{"error":"Unauthorized"}`,
		},
		{
			name: "identity backend down",
			verifier: identity.VerifierFunc(func(context.Context, string) (string, error) {
				return "", errors.New("connection refused")
			}),
			method:        http.MethodGet,
			authorization: "Bearer good",
			wantStatus:    http.StatusInternalServerError,
			wantBody:      `{"error":"Identity verification failed"}`,
		},
		{
			name:          "empty body",
			verifier:      tokenVerifier,
			method:        http.MethodPut,
			authorization: "Bearer good",
			wantStatus:    http.StatusBadRequest,
			wantBody:      `{"error":"No JSON data provided"}`,
		},
		{
			name:          "method not allowed",
			verifier:      tokenVerifier,
			method:        http.MethodPost,
			authorization: "Bearer good",
			wantStatus:    http.StatusMethodNotAllowed,
			wantBody:      `{"error":"Method not allowed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProfileHandler(storage.NewMemoryStorage(), tt.verifier)

			w := serveProfile(h, tt.method, tt.authorization, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestProfileHandler_InvalidJSON(t *testing.T) {
	h := NewProfileHandler(storage.NewMemoryStorage(), tokenVerifier)

	w := serveProfile(h, http.MethodPut, "Bearer good", `{"gender":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid profile")
}

func TestStoredProfileResolver(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	resolver := NewStoredProfileResolver(store, tokenVerifier)

	profile, err := resolver.ResolveProfile(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = resolver.ResolveProfile(ctx, "Bearer good")
	assert.NoError(t, err)
	assert.Nil(t, profile, "no saved profile yet")

	_, err = store.SetProfile(ctx, "u1", search.Profile{Religion: "Hindu"})
	require.NoError(t, err)

	profile, err = resolver.ResolveProfile(ctx, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, &search.Profile{Religion: "Hindu"}, profile)

	_, err = resolver.ResolveProfile(ctx, "Bearer stale")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
