// Package calendarauth implements the Google Calendar authorization handoff:
// an authenticated caller gets back the URL of the provider's consent page.
package calendarauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clubfinder/clubfinder/internal/identity"
	jsonwriter "github.com/clubfinder/clubfinder/internal/json"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/metrics"
)

// NotConfiguredMessage is returned when the client credentials are absent.
const NotConfiguredMessage = "Google Calendar integration not configured"

// AuthURLResponse is the success body.
type AuthURLResponse struct {
	URL string `json:"url"`
}

// Handler serves GET /api/google-calendar/auth.
type Handler struct {
	verifier        identity.Verifier
	builder         URLBuilder
	metrics         metrics.Recorder
	loadCredentials func() (Credentials, error)
}

// NewHandler creates the handoff handler. A nil recorder disables metrics.
func NewHandler(verifier identity.Verifier, builder URLBuilder, recorder metrics.Recorder) *Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Handler{
		verifier:        verifier,
		builder:         builder,
		metrics:         recorder,
		loadCredentials: LoadCredentials,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			h.internalError(w, r, err)
		}
	}()

	token, ok := identity.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.unauthorized(w)
		return
	}

	// Verification runs to completion even if the caller disconnects.
	userID, err := h.verifier.Verify(context.WithoutCancel(r.Context()), token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			h.unauthorized(w)
			return
		}
		h.internalError(w, r, err)
		return
	}
	if userID == "" {
		h.unauthorized(w)
		return
	}

	// Configuration is only inspected for identified callers.
	creds, err := h.loadCredentials()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !creds.Configured() {
		h.metrics.RecordHandoff(metrics.OutcomeNotConfigured)
		jsonwriter.WriteServiceUnavailable(w, NotConfiguredMessage)
		return
	}

	authURL, err := h.builder.AuthURL(creds, userID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.metrics.RecordHandoff(metrics.OutcomeIssued)
	_ = jsonwriter.Write(w, AuthURLResponse{URL: authURL})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	h.metrics.RecordHandoff(metrics.OutcomeUnauthorized)
	jsonwriter.WriteUnauthorized(w)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.metrics.RecordHandoff(metrics.OutcomeInternalError)
	log.LogErrorWithFields("calendar", "Authorization handoff failed", map[string]any{
		"error": err.Error(),
		"path":  r.URL.Path,
	})
	jsonwriter.WriteInternalServerError(w, err.Error())
}
