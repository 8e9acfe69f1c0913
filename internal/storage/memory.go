package storage

import (
	"context"
	"sync"
	"time"

	"github.com/clubfinder/clubfinder/internal/search"
)

var _ ProfileStore = (*MemoryStorage)(nil)

// MemoryStorage keeps profiles in process memory. Profiles are lost on restart.
type MemoryStorage struct {
	profiles      map[string]*StoredProfile
	profilesMutex sync.RWMutex
	now           func() time.Time
}

// NewMemoryStorage creates a new storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		profiles: make(map[string]*StoredProfile),
		now:      time.Now,
	}
}

func (s *MemoryStorage) GetProfile(_ context.Context, userID string) (*StoredProfile, error) {
	s.profilesMutex.RLock()
	defer s.profilesMutex.RUnlock()

	stored, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(stored), nil
}

func (s *MemoryStorage) SetProfile(_ context.Context, userID string, profile search.Profile) (*StoredProfile, error) {
	stored := &StoredProfile{
		UserID:    userID,
		Profile:   profile,
		UpdatedAt: s.now(),
	}
	stored = cloneProfile(stored)

	s.profilesMutex.Lock()
	s.profiles[userID] = stored
	s.profilesMutex.Unlock()

	return cloneProfile(stored), nil
}

func (s *MemoryStorage) DeleteProfile(_ context.Context, userID string) error {
	s.profilesMutex.Lock()
	defer s.profilesMutex.Unlock()

	if _, ok := s.profiles[userID]; !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, userID)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

func cloneProfile(p *StoredProfile) *StoredProfile {
	c := *p
	if p.Profile.CareerFields != nil {
		c.Profile.CareerFields = append(search.CareerFields(nil), p.Profile.CareerFields...)
	}
	return &c
}
