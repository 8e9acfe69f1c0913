// Package survey serves the survey page and the caller's saved profile.
package survey

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clubfinder/clubfinder/internal/cookie"
	"github.com/clubfinder/clubfinder/internal/crypto"
	"github.com/clubfinder/clubfinder/internal/identity"
	jsonwriter "github.com/clubfinder/clubfinder/internal/json"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/clubfinder/clubfinder/internal/storage"
)

// Handler serves GET and POST /survey.
type Handler struct {
	searcher search.Searcher
	profiles storage.ProfileStore
	verifier identity.Verifier
	csrf     *crypto.CSRFProtection
}

func NewHandler(searcher search.Searcher, profiles storage.ProfileStore, verifier identity.Verifier, csrf *crypto.CSRFProtection) *Handler {
	return &Handler{
		searcher: searcher,
		profiles: profiles,
		verifier: verifier,
		csrf:     csrf,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.page(w, r)
	case http.MethodPost:
		h.submit(w, r)
	default:
		jsonwriter.WriteMethodNotAllowed(w, "GET, POST")
	}
}

// page renders the empty survey, prefilled with the caller's saved profile
// when one is available.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	var profile search.Profile
	if userID, ok := h.caller(w, r); ok {
		if stored, err := h.profiles.GetProfile(r.Context(), userID); err == nil {
			profile = stored.Profile
		}
	}
	h.render(w, http.StatusOK, newPageData("", "", profile))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := newPageData("", "", search.Profile{})
		data.Message, data.MessageType = "Could not read the form.", "error"
		h.render(w, http.StatusBadRequest, data)
		return
	}

	query := strings.TrimSpace(r.PostFormValue("query"))
	profile := profileFromForm(r)
	data := newPageData("", query, profile)

	if !h.csrf.Validate(r.PostFormValue("csrf_token")) {
		data.Message, data.MessageType = "This form has expired. Please submit it again.", "error"
		h.render(w, http.StatusForbidden, data)
		return
	}
	if query == "" {
		data.Message, data.MessageType = "Tell us what you are interested in to start searching.", "error"
		h.render(w, http.StatusBadRequest, data)
		return
	}

	if userID, ok := h.caller(w, r); ok {
		if _, err := h.profiles.SetProfile(r.Context(), userID, profile); err != nil {
			log.LogErrorWithFields("survey", "Failed to save profile", map[string]any{
				"user":  userID,
				"error": err.Error(),
			})
		} else {
			data.Message, data.MessageType = "Your answers were saved.", "success"
		}
	}

	results, err := h.searcher.Search(r.Context(), search.Request{Query: query, Profile: &profile})
	if err != nil {
		log.LogErrorWithFields("survey", "Search failed", map[string]any{
			"error": err.Error(),
		})
		data.Message, data.MessageType = "Search is unavailable right now. Please try again later.", "error"
		h.render(w, http.StatusInternalServerError, data)
		return
	}

	data.Submitted = true
	data.Results = results
	h.render(w, http.StatusOK, data)
}

// caller identifies the user from the Authorization header or, for plain
// form posts, the access token cookie. A rejected cookie is cleared.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, fromHeader := identity.BearerToken(r.Header.Get("Authorization"))
	if !fromHeader {
		var ok bool
		if token, ok = cookie.GetAccessToken(r); !ok {
			return "", false
		}
	}

	userID, err := h.verifier.Verify(context.WithoutCancel(r.Context()), token)
	if err != nil || userID == "" {
		if !fromHeader && (err == nil || errors.Is(err, identity.ErrInvalidToken)) {
			cookie.ClearAccessToken(w)
		}
		if err != nil && !errors.Is(err, identity.ErrInvalidToken) {
			log.LogWarnWithFields("survey", "Identity check failed", map[string]any{
				"error": err.Error(),
			})
		}
		return "", false
	}
	return userID, true
}

func profileFromForm(r *http.Request) search.Profile {
	value := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }

	var careerFields search.CareerFields
	for _, f := range r.PostForm["careerFields"] {
		if f = strings.TrimSpace(f); f != "" {
			careerFields = append(careerFields, f)
		}
	}

	return search.Profile{
		Gender:         value("gender"),
		Race:           value("race"),
		Classification: value("classification"),
		Sexuality:      value("sexuality"),
		Religion:       value("religion"),
		Major:          value("major"),
		CareerFields:   careerFields,
	}
}

// render always issues a fresh CSRF token so the form can be resubmitted.
func (h *Handler) render(w http.ResponseWriter, status int, data PageData) {
	token, err := h.csrf.Generate()
	if err != nil {
		log.LogErrorWithFields("survey", "Failed to generate CSRF token", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}
	data.CSRFToken = token

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := surveyPageTemplate.Execute(w, data); err != nil {
		log.LogErrorWithFields("survey", "Failed to render survey page", map[string]any{
			"error": err.Error(),
		})
	}
}
