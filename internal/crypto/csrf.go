package crypto

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CSRFProtection issues stateless form tokens for the survey page.
// Tokens are nonce:timestamp:signature and expire after ttl.
type CSRFProtection struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewCSRFProtection creates a new CSRF protection instance
func NewCSRFProtection(signingKey []byte, ttl time.Duration) *CSRFProtection {
	return &CSRFProtection{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Generate creates a new CSRF token
func (c *CSRFProtection) Generate() (string, error) {
	nonce, err := GenerateSecureToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	data := nonce + ":" + timestamp

	return data + ":" + SignData(data, c.signingKey), nil
}

// Validate checks that a token was issued by this instance and has not expired
func (c *CSRFProtection) Validate(token string) bool {
	nonce, rest, ok := strings.Cut(token, ":")
	if !ok {
		return false
	}
	timestampStr, signature, ok := strings.Cut(rest, ":")
	if !ok {
		return false
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return false
	}
	if c.now().Sub(time.Unix(timestamp, 0)) > c.ttl {
		return false
	}

	return ValidateSignedData(nonce+":"+timestampStr, signature, c.signingKey)
}
