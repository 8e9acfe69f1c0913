package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Verify(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	valid := jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name     string
		token    func() string
		audience string
		wantUser string
		wantErr  bool
	}{
		{
			name:     "valid",
			token:    func() string { return signToken(t, jwt.SigningMethodHS256, testSecret, valid) },
			audience: "authenticated",
			wantUser: "u1",
		},
		{
			name: "expired",
			token: func() string {
				c := valid
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
				return signToken(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name: "missing expiry",
			token: func() string {
				c := valid
				c.ExpiresAt = nil
				return signToken(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name: "wrong secret",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), valid)
			},
			wantErr: true,
		},
		{
			name:    "wrong algorithm",
			token:   func() string { return signToken(t, jwt.SigningMethodHS512, testSecret, valid) },
			wantErr: true,
		},
		{
			name:     "wrong audience",
			token:    func() string { return signToken(t, jwt.SigningMethodHS256, testSecret, valid) },
			audience: "service_role",
			wantErr:  true,
		},
		{
			name: "missing subject",
			token: func() string {
				c := valid
				c.Subject = ""
				return signToken(t, jwt.SigningMethodHS256, testSecret, c)
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func() string { return "not-a-jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewJWTVerifier(testSecret, tt.audience)
			require.NoError(t, err)
			v.now = func() time.Time { return now }

			user, err := v.Verify(context.Background(), tt.token())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user)
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier(nil, "")
	assert.Error(t, err)
}
