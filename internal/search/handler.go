package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	jsonwriter "github.com/clubfinder/clubfinder/internal/json"
	"github.com/clubfinder/clubfinder/internal/log"
)

// ProfileResolver finds the stored profile of the caller identified by an
// Authorization header. It returns nil when there is none.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, authorization string) (*Profile, error)
}

// Searcher is satisfied by *Service.
type Searcher interface {
	Search(ctx context.Context, req Request) ([]Result, error)
}

const maxRequestBytes = 1 << 20

type searchRequest struct {
	Query    string   `json:"query"`
	UserData *Profile `json:"userData"`
	TopN     int      `json:"topN"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Handler serves POST /api/search.
type Handler struct {
	searcher Searcher
	profiles ProfileResolver
}

// NewHandler creates the search handler. profiles may be nil, in which case
// searches without userData are unfiltered.
func NewHandler(searcher Searcher, profiles ProfileResolver) *Handler {
	return &Handler{searcher: searcher, profiles: profiles}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Request body too large")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		jsonwriter.WriteBadRequest(w, "No JSON data provided")
		return
	}

	var req searchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid request: "+err.Error())
		return
	}
	if req.Query == "" {
		jsonwriter.WriteBadRequest(w, "Missing query parameter")
		return
	}

	profile := req.UserData
	if profile == nil && h.profiles != nil {
		if auth := r.Header.Get("Authorization"); auth != "" {
			stored, err := h.profiles.ResolveProfile(r.Context(), auth)
			if err != nil {
				log.LogDebugWithFields("search", "No stored profile for caller", map[string]any{
					"error": err.Error(),
				})
			}
			profile = stored
		}
	}

	results, err := h.searcher.Search(r.Context(), Request{
		Query:   req.Query,
		Profile: profile,
		TopN:    req.TopN,
	})
	if err != nil {
		log.LogErrorWithFields("search", "Search failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, err.Error())
		return
	}

	_ = jsonwriter.Write(w, SearchResponse{Results: results})
}
