package storage

import (
	"context"
	"errors"
	"time"

	"github.com/clubfinder/clubfinder/internal/search"
)

// ErrProfileNotFound is returned when a user has not saved a profile
var ErrProfileNotFound = errors.New("profile not found")

// StoredProfile is a user's saved survey answers
type StoredProfile struct {
	UserID    string         `json:"userId"`
	Profile   search.Profile `json:"profile"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ProfileStore persists survey profiles keyed by user id.
// Implementations are safe for concurrent use.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*StoredProfile, error)
	SetProfile(ctx context.Context, userID string, profile search.Profile) (*StoredProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
	Close() error
}
