package calendarauth

import (
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Scopes requested from the user during the consent flow.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
}

// URLBuilder produces the provider consent URL for a user.
// The state value round-trips through the provider untouched.
type URLBuilder interface {
	AuthURL(creds Credentials, state string) (string, error)
}

// GoogleURLBuilder builds Google consent URLs for calendar access.
type GoogleURLBuilder struct {
	redirectURI string
	endpoint    oauth2.Endpoint
}

// NewGoogleURLBuilder creates a builder that sends users back to redirectURI.
func NewGoogleURLBuilder(redirectURI string) *GoogleURLBuilder {
	return &GoogleURLBuilder{
		redirectURI: redirectURI,
		endpoint:    google.Endpoint,
	}
}

// AuthURL implements URLBuilder. Offline access and a forced consent
// prompt make Google issue a refresh token every time.
func (b *GoogleURLBuilder) AuthURL(creds Credentials, state string) (string, error) {
	if state == "" {
		return "", errors.New("state is required")
	}

	config := oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  b.redirectURI,
		Scopes:       Scopes,
		Endpoint:     b.endpoint,
	}
	return config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	), nil
}
