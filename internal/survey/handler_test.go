package survey

import (
	"context"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/clubfinder/clubfinder/internal/cookie"
	"github.com/clubfinder/clubfinder/internal/crypto"
	"github.com/clubfinder/clubfinder/internal/identity"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/clubfinder/clubfinder/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	got     *search.Request
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) ([]search.Result, error) {
	f.got = &req
	return f.results, f.err
}

// tokenVerifier accepts "good" as user u1 and rejects everything else.
var tokenVerifier = identity.VerifierFunc(func(_ context.Context, token string) (string, error) {
	if token == "good" {
		return "u1", nil
	}
	return "", identity.ErrInvalidToken
})

func newTestHandler(t *testing.T, searcher search.Searcher) (*Handler, *storage.MemoryStorage, *crypto.CSRFProtection) {
	t.Helper()
	store := storage.NewMemoryStorage()
	csrf := crypto.NewCSRFProtection([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	return NewHandler(searcher, store, tokenVerifier, csrf), store, csrf
}

func postForm(h http.Handler, form url.Values, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/survey", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func validForm(t *testing.T, csrf *crypto.CSRFProtection) url.Values {
	t.Helper()
	token, err := csrf.Generate()
	require.NoError(t, err)
	return url.Values{
		"csrf_token":     {token},
		"query":          {"  robotics  "},
		"gender":         {"Female"},
		"classification": {"Junior"},
		"major":          {"Mechanical Engineering"},
		"careerFields":   {"Engineering", " ", "Technology/Computer Science"},
	}
}

func TestSurveyPage(t *testing.T) {
	h, _, csrf := newTestHandler(t, &fakeSearcher{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/survey", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `id="loading"`)
	assert.Contains(t, body, `name="careerFields" value="Engineering"`)
	assert.NotContains(t, body, `id="results"`)

	token := extractCSRF(t, body)
	assert.True(t, csrf.Validate(token))
}

func TestSurveyPage_PrefillsSavedProfile(t *testing.T) {
	h, store, _ := newTestHandler(t, &fakeSearcher{})
	_, err := store.SetProfile(context.Background(), "u1", search.Profile{
		Gender:       "Male",
		Major:        "History",
		CareerFields: search.CareerFields{"Law"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/survey", nil)
	req.AddCookie(&http.Cookie{Name: cookie.AccessTokenCookie, Value: "good"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, `<option value="Male" selected>`)
	assert.Contains(t, body, `value="History"`)
	assert.Contains(t, body, `value="Law" checked`)
}

func TestSurveySubmit(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Name: "Robotics Club", RelevanceScore: 8, BioSnippet: "We build robots", Website: "https://robots.example"},
	}}
	h, store, csrf := newTestHandler(t, searcher)

	w := postForm(h, validForm(t, csrf), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "1 matching organizations")
	assert.Contains(t, body, `<a href="https://robots.example" rel="noopener">Robotics Club</a>`)
	assert.Contains(t, body, "Relevance 8")

	require.NotNil(t, searcher.got)
	assert.Equal(t, "robotics", searcher.got.Query)
	assert.Equal(t, &search.Profile{
		Gender:         "Female",
		Classification: "Junior",
		Major:          "Mechanical Engineering",
		CareerFields:   search.CareerFields{"Engineering", "Technology/Computer Science"},
	}, searcher.got.Profile)

	_, err := store.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrProfileNotFound, "anonymous submissions are not saved")
}

func TestSurveySubmit_SavesProfileForSignedInUser(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*http.Request)
	}{
		{
			name:   "bearer header",
			mutate: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
		},
		{
			name: "access token cookie",
			mutate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: cookie.AccessTokenCookie, Value: "good"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store, csrf := newTestHandler(t, &fakeSearcher{})

			w := postForm(h, validForm(t, csrf), tt.mutate)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "Your answers were saved.")
			stored, err := store.GetProfile(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, "Female", stored.Profile.Gender)
			assert.Equal(t, search.CareerFields{"Engineering", "Technology/Computer Science"}, stored.Profile.CareerFields)
		})
	}
}

func TestSurveySubmit_InvalidCookieIsCleared(t *testing.T) {
	h, _, csrf := newTestHandler(t, &fakeSearcher{})

	w := postForm(h, validForm(t, csrf), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookie.AccessTokenCookie, Value: "stale"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Your answers were saved.")
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cookie.AccessTokenCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "stale access token cookie should be cleared")
}

func TestSurveySubmit_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		form       func(url.Values)
		wantStatus int
		wantText   string
	}{
		{
			name:       "missing csrf token",
			form:       func(v url.Values) { v.Del("csrf_token") },
			wantStatus: http.StatusForbidden,
			wantText:   "This form has expired",
		},
		{
			name:       "forged csrf token",
			form:       func(v url.Values) { v.Set("csrf_token", "nonce:1:sig") },
			wantStatus: http.StatusForbidden,
			wantText:   "This form has expired",
		},
		{
			name:       "blank query",
			form:       func(v url.Values) { v.Set("query", "   ") },
			wantStatus: http.StatusBadRequest,
			wantText:   "Tell us what you are interested in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			h, _, csrf := newTestHandler(t, searcher)
			form := validForm(t, csrf)
			tt.form(form)

			w := postForm(h, form, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tt.wantText)
			assert.Contains(t, body, `<option value="Female" selected>`, "answers are kept on rejection")
			assert.Nil(t, searcher.got)
			assert.True(t, csrf.Validate(extractCSRF(t, body)), "page carries a fresh token")
		})
	}
}

func TestSurveySubmit_SearchFailure(t *testing.T) {
	h, _, csrf := newTestHandler(t, &fakeSearcher{err: errors.New("catalogue unavailable")})

	w := postForm(h, validForm(t, csrf), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Search is unavailable right now")
	assert.NotContains(t, w.Body.String(), "catalogue unavailable")
}

func TestSurvey_MethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeSearcher{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/survey", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
}

func extractCSRF(t *testing.T, body string) string {
	t.Helper()
	const marker = `name="csrf_token" value="`
	start := strings.Index(body, marker)
	require.GreaterOrEqual(t, start, 0, "csrf token input missing")
	rest := body[start+len(marker):]
	end := strings.Index(rest, `"`)
	require.Greater(t, end, 0)
	return html.UnescapeString(rest[:end])
}
