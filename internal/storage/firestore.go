package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clubfinder/clubfinder/internal/crypto"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/search"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ ProfileStore = (*FirestoreStorage)(nil)

// FirestoreStorage stores profiles in a Firestore collection, one document
// per user. Demographic answers are encrypted before they are written.
type FirestoreStorage struct {
	client     *firestore.Client
	projectID  string
	collection string
	encryptor  crypto.Encryptor
	now        func() time.Time
}

// ProfileDoc is the Firestore document layout
type ProfileDoc struct {
	UserID         string    `firestore:"user_id"`
	Gender         string    `firestore:"gender,omitempty"`    // encrypted
	Race           string    `firestore:"race,omitempty"`      // encrypted
	Sexuality      string    `firestore:"sexuality,omitempty"` // encrypted
	Religion       string    `firestore:"religion,omitempty"`  // encrypted
	Classification string    `firestore:"classification,omitempty"`
	Major          string    `firestore:"major,omitempty"`
	CareerFields   []string  `firestore:"career_fields,omitempty"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

// NewFirestoreStorage creates a new Firestore storage instance
func NewFirestoreStorage(ctx context.Context, projectID, database, collection string, encryptor crypto.Encryptor, opts ...option.ClientOption) (*FirestoreStorage, error) {
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
	} else {
		client, err = firestore.NewClient(ctx, projectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:     client,
		projectID:  projectID,
		collection: collection,
		encryptor:  encryptor,
		now:        time.Now,
	}, nil
}

// sealed lists the document fields that are encrypted at rest.
func sealed(doc *ProfileDoc) []*string {
	return []*string{&doc.Gender, &doc.Race, &doc.Sexuality, &doc.Religion}
}

func toProfileDoc(stored *StoredProfile, encryptor crypto.Encryptor) (*ProfileDoc, error) {
	p := stored.Profile
	doc := &ProfileDoc{
		UserID:         stored.UserID,
		Gender:         p.Gender,
		Race:           p.Race,
		Sexuality:      p.Sexuality,
		Religion:       p.Religion,
		Classification: p.Classification,
		Major:          p.Major,
		CareerFields:   p.CareerFields,
		UpdatedAt:      stored.UpdatedAt,
	}
	for _, field := range sealed(doc) {
		if *field == "" {
			continue
		}
		encrypted, err := encryptor.Encrypt(*field)
		if err != nil {
			return nil, fmt.Errorf("encrypting profile: %w", err)
		}
		*field = encrypted
	}
	return doc, nil
}

func fromProfileDoc(doc *ProfileDoc, encryptor crypto.Encryptor) (*StoredProfile, error) {
	for _, field := range sealed(doc) {
		if *field == "" {
			continue
		}
		decrypted, err := encryptor.Decrypt(*field)
		if err != nil {
			return nil, fmt.Errorf("decrypting profile: %w", err)
		}
		*field = decrypted
	}

	return &StoredProfile{
		UserID: doc.UserID,
		Profile: search.Profile{
			Gender:         doc.Gender,
			Race:           doc.Race,
			Classification: doc.Classification,
			Sexuality:      doc.Sexuality,
			Religion:       doc.Religion,
			Major:          doc.Major,
			CareerFields:   doc.CareerFields,
		},
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *FirestoreStorage) GetProfile(ctx context.Context, userID string) (*StoredProfile, error) {
	snap, err := s.client.Collection(s.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile from Firestore: %w", err)
	}

	var doc ProfileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return fromProfileDoc(&doc, s.encryptor)
}

func (s *FirestoreStorage) SetProfile(ctx context.Context, userID string, profile search.Profile) (*StoredProfile, error) {
	stored := &StoredProfile{
		UserID:    userID,
		Profile:   profile,
		UpdatedAt: s.now().UTC(),
	}

	doc, err := toProfileDoc(stored, s.encryptor)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.Collection(s.collection).Doc(userID).Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store profile in Firestore: %w", err)
	}

	log.LogDebugWithFields("storage", "Stored profile", map[string]any{
		"user": userID,
	})
	return stored, nil
}

func (s *FirestoreStorage) DeleteProfile(ctx context.Context, userID string) error {
	ref := s.client.Collection(s.collection).Doc(userID)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to delete profile from Firestore: %w", err)
	}
	return nil
}

// CountProfiles returns the number of stored profiles.
func (s *FirestoreStorage) CountProfiles(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("error iterating Firestore documents: %w", err)
		}
		count++
	}
	return count, nil
}

func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}
