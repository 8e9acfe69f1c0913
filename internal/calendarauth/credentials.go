package calendarauth

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Credentials are the Google OAuth client credentials.
type Credentials struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

// Configured reports whether both values are present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// LoadCredentials reads the credentials from the process environment.
// Missing variables leave the fields empty rather than failing.
func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return creds, nil
}
