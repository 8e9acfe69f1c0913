package cookie

import (
	"net/http"

	"github.com/clubfinder/clubfinder/internal/log"
)

// AccessTokenCookie holds the caller's identity token for plain form posts,
// which cannot carry an Authorization header.
const AccessTokenCookie = "clubfinder_access_token"

// Clear removes a cookie by setting MaxAge to -1
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// ClearAccessToken removes the access token cookie
func ClearAccessToken(w http.ResponseWriter) {
	Clear(w, AccessTokenCookie)
	log.LogTraceWithFields("cookie", "Access token cookie cleared", nil)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetAccessToken retrieves the access token cookie value
func GetAccessToken(r *http.Request) (string, bool) {
	value, err := Get(r, AccessTokenCookie)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}
