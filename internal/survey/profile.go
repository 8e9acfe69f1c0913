package survey

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/clubfinder/clubfinder/internal/identity"
	jsonwriter "github.com/clubfinder/clubfinder/internal/json"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/clubfinder/clubfinder/internal/storage"
)

const maxProfileBytes = 64 << 10

// ProfileHandler serves GET, PUT and DELETE /api/profile for the bearer of
// the Authorization header.
type ProfileHandler struct {
	profiles storage.ProfileStore
	verifier identity.Verifier
}

func NewProfileHandler(profiles storage.ProfileStore, verifier identity.Verifier) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, verifier: verifier}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		jsonwriter.WriteMethodNotAllowed(w, "GET, PUT, DELETE")
		return
	}

	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		stored, err := h.profiles.GetProfile(r.Context(), userID)
		if errors.Is(err, storage.ErrProfileNotFound) {
			jsonwriter.WriteNotFound(w, "Profile not found")
			return
		}
		if err != nil {
			h.storageError(w, "get", userID, err)
			return
		}
		_ = jsonwriter.Write(w, stored)

	case http.MethodPut:
		var profile search.Profile
		r.Body = http.MaxBytesReader(w, r.Body, maxProfileBytes)
		if err := jsonwriter.Decode(r, &profile); err != nil {
			if errors.Is(err, io.EOF) {
				jsonwriter.WriteBadRequest(w, "No JSON data provided")
				return
			}
			jsonwriter.WriteBadRequest(w, "Invalid profile: "+err.Error())
			return
		}
		stored, err := h.profiles.SetProfile(r.Context(), userID, profile)
		if err != nil {
			h.storageError(w, "set", userID, err)
			return
		}
		log.LogInfoWithFields("profile", "Profile saved", map[string]any{
			"user": userID,
		})
		_ = jsonwriter.Write(w, stored)

	case http.MethodDelete:
		err := h.profiles.DeleteProfile(r.Context(), userID)
		if errors.Is(err, storage.ErrProfileNotFound) {
			jsonwriter.WriteNotFound(w, "Profile not found")
			return
		}
		if err != nil {
			h.storageError(w, "delete", userID, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ProfileHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := identity.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		jsonwriter.WriteUnauthorized(w)
		return "", false
	}

	userID, err := h.verifier.Verify(context.WithoutCancel(r.Context()), token)
	if errors.Is(err, identity.ErrInvalidToken) || (err == nil && userID == "") {
		jsonwriter.WriteUnauthorized(w)
		return "", false
	}
	if err != nil {
		log.LogErrorWithFields("profile", "Identity verification failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Identity verification failed")
		return "", false
	}
	return userID, true
}

func (h *ProfileHandler) storageError(w http.ResponseWriter, op, userID string, err error) {
	log.LogErrorWithFields("profile", "Profile storage failed", map[string]any{
		"op":    op,
		"user":  userID,
		"error": err.Error(),
	})
	jsonwriter.WriteInternalServerError(w, "Profile storage failed")
}

var _ search.ProfileResolver = (*StoredProfileResolver)(nil)

// StoredProfileResolver looks up the saved profile of the caller behind an
// Authorization header so searches without userData can still be filtered.
type StoredProfileResolver struct {
	profiles storage.ProfileStore
	verifier identity.Verifier
}

func NewStoredProfileResolver(profiles storage.ProfileStore, verifier identity.Verifier) *StoredProfileResolver {
	return &StoredProfileResolver{profiles: profiles, verifier: verifier}
}

// ResolveProfile returns nil without error when the header carries no bearer
// token or the user has not saved a profile.
func (s *StoredProfileResolver) ResolveProfile(ctx context.Context, authorization string) (*search.Profile, error) {
	token, ok := identity.BearerToken(authorization)
	if !ok {
		return nil, nil
	}
	userID, err := s.verifier.Verify(context.WithoutCancel(ctx), token)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, identity.ErrInvalidToken
	}

	stored, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	profile := stored.Profile
	return &profile, nil
}
